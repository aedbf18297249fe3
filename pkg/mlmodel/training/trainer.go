package training

import (
	"errors"
	"fmt"
	"math"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

var (
	// ErrNonFiniteInput is returned when a feature matrix holds NaN or Inf.
	// Nothing imputes missing values, so a NULL numeric input surfaces here.
	ErrNonFiniteInput = errors.New("input contains NaN or infinite values")
	// ErrEmptyTrainingSet is returned when there are no rows to fit on
	ErrEmptyTrainingSet = errors.New("no training data provided")
)

// Trainer fits one kind of regressor
type Trainer interface {
	// Train fits the model on the encoded features and targets
	Train(X *encoding.Matrix, y []float64) (*Regressor, error)

	// GetType returns the model type this trainer handles
	GetType() models.ModelType
}

// TrainerFactory creates trainers for different model types
type TrainerFactory struct {
	trainers map[models.ModelType]Trainer
}

// NewTrainerFactory creates a factory whose seeded trainers share seed
func NewTrainerFactory(seed int64) *TrainerFactory {
	factory := &TrainerFactory{
		trainers: make(map[models.ModelType]Trainer),
	}

	factory.trainers[models.ModelTypeGradientBoosting] = NewGradientBoostingTrainer(seed)
	factory.trainers[models.ModelTypeRandomForest] = NewRandomForestTrainer(seed)
	factory.trainers[models.ModelTypeLinearRegression] = NewLinearRegressionTrainer()

	return factory
}

// GetTrainer returns the appropriate trainer for a model type
func (f *TrainerFactory) GetTrainer(modelType models.ModelType) (Trainer, error) {
	trainer, ok := f.trainers[modelType]
	if !ok {
		return nil, fmt.Errorf("no trainer available for model type: %s", modelType)
	}
	return trainer, nil
}

func checkInputs(X *encoding.Matrix, y []float64) error {
	if X.Rows() == 0 {
		return ErrEmptyTrainingSet
	}
	if X.Rows() != len(y) {
		return fmt.Errorf("feature rows (%d) and targets (%d) differ", X.Rows(), len(y))
	}
	if X.HasNaN() {
		return ErrNonFiniteInput
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteInput
		}
	}
	return nil
}
