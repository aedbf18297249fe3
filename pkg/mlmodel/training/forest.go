package training

import (
	"fmt"
	"math/rand"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// ForestModel averages fully grown trees fitted on bootstrap samples
type ForestModel struct {
	Trees []*Tree `json:"trees"`
}

func (m *ForestModel) predictRow(idx []int, vals []float64) float64 {
	sum := 0.0
	for _, t := range m.Trees {
		sum += t.predictRow(idx, vals)
	}
	return sum / float64(len(m.Trees))
}

// RandomForestTrainer fits a bagged ensemble of regression trees
type RandomForestTrainer struct {
	NEstimators int
	MaxDepth    int // 0 grows trees fully
	Seed        int64
}

// NewRandomForestTrainer creates a random forest trainer with 200 trees
func NewRandomForestTrainer(seed int64) *RandomForestTrainer {
	return &RandomForestTrainer{
		NEstimators: 200,
		Seed:        seed,
	}
}

// Train fits the forest. Each tree gets its own bootstrap sample drawn from a
// generator seeded by the forest seed, so refits are reproducible.
func (t *RandomForestTrainer) Train(X *encoding.Matrix, y []float64) (*Regressor, error) {
	if err := checkInputs(X, y); err != nil {
		return nil, err
	}
	if t.NEstimators <= 0 {
		return nil, fmt.Errorf("random forest needs at least one tree, got %d", t.NEstimators)
	}

	n := X.Rows()
	builder := newTreeBuilder(X, t.MaxDepth)
	seeds := rand.New(rand.NewSource(t.Seed))
	weight := make([]float64, n)

	forest := &ForestModel{Trees: make([]*Tree, 0, t.NEstimators)}
	for i := 0; i < t.NEstimators; i++ {
		rng := rand.New(rand.NewSource(seeds.Int63()))
		for j := range weight {
			weight[j] = 0
		}
		for j := 0; j < n; j++ {
			weight[rng.Intn(n)]++
		}
		forest.Trees = append(forest.Trees, builder.build(y, weight))
	}

	return &Regressor{
		Kind:     models.ModelTypeRandomForest,
		Features: X.Cols(),
		Forest:   forest,
	}, nil
}

// GetType returns the model type
func (t *RandomForestTrainer) GetType() models.ModelType {
	return models.ModelTypeRandomForest
}
