package training

import (
	"fmt"
	"math"
	"math/rand"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
)

// TrainTestSplit shuffles row indices with a seeded generator and holds out
// ceil(testSize*n) of them
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, fmt.Errorf("%d rows are too few to hold out %v for testing", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Split is a train/test partition of features and targets
type Split struct {
	TrainX *dataframe.DataFrame
	TrainY []float64
	TestX  *dataframe.DataFrame
	TestY  []float64
}

// SplitFrame partitions X and y with TrainTestSplit
func SplitFrame(X *dataframe.DataFrame, y []float64, testSize float64, seed int64) (*Split, error) {
	if X.NRows() != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and targets (%d) differ", X.NRows(), len(y))
	}
	train, test, err := TrainTestSplit(len(y), testSize, seed)
	if err != nil {
		return nil, err
	}

	trainX, err := dataset.SelectRows(X, train)
	if err != nil {
		return nil, err
	}
	testX, err := dataset.SelectRows(X, test)
	if err != nil {
		return nil, err
	}
	return &Split{
		TrainX: trainX,
		TrainY: pick(y, train),
		TestX:  testX,
		TestY:  pick(y, test),
	}, nil
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = values[r]
	}
	return out
}
