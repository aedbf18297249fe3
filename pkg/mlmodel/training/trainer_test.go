package training

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

func stepData() (*encoding.Matrix, []float64) {
	X := column(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	y := []float64{0, 0, 0, 0, 0, 10, 10, 10, 10, 10}
	return X, y
}

func TestTrainerFactory(t *testing.T) {
	factory := NewTrainerFactory(42)
	for _, m := range []models.ModelType{
		models.ModelTypeGradientBoosting,
		models.ModelTypeRandomForest,
		models.ModelTypeLinearRegression,
	} {
		trainer, err := factory.GetTrainer(m)
		require.NoError(t, err)
		assert.Equal(t, m, trainer.GetType())
	}

	_, err := factory.GetTrainer("neural_network")
	assert.Error(t, err)
}

func TestGradientBoostingConvergesOnStep(t *testing.T) {
	X, y := stepData()
	reg, err := NewGradientBoostingTrainer(42).Train(X, y)
	require.NoError(t, err)

	assert.Equal(t, models.ModelTypeGradientBoosting, reg.Kind)
	assert.Equal(t, 5.0, reg.Boosting.Init)
	assert.Len(t, reg.Boosting.Trees, 200)

	pred, err := reg.Predict(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, pred, 1e-6)
}

func TestRandomForestIsReproducible(t *testing.T) {
	X, y := stepData()

	a, err := NewRandomForestTrainer(42).Train(X, y)
	require.NoError(t, err)
	b, err := NewRandomForestTrainer(42).Train(X, y)
	require.NoError(t, err)

	assert.Len(t, a.Forest.Trees, 200)
	assert.Equal(t, a, b)

	pred, err := a.Predict(X)
	require.NoError(t, err)
	for i, p := range pred {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 10.0)
		if y[i] == 0 {
			assert.Less(t, p, 5.0)
		} else {
			assert.Greater(t, p, 5.0)
		}
	}
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X := encoding.NewMatrixFromDense([][]float64{
		{1, 0},
		{2, 1},
		{3, 5},
		{4, 2},
		{5, 3},
	})
	y := make([]float64, X.Rows())
	for i := range y {
		y[i] = 3 + 2*X.At(i, 0) - X.At(i, 1)
	}

	reg, err := NewLinearRegressionTrainer().Train(X, y)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, reg.Linear.Coefficients[0], 1e-8)
	assert.InDelta(t, -1.0, reg.Linear.Coefficients[1], 1e-8)
	assert.InDelta(t, 3.0, reg.Linear.Intercept, 1e-8)
}

func TestLinearRegressionMinimumNormOnCollinearOneHot(t *testing.T) {
	// the two indicator columns always sum to one
	X := encoding.NewMatrixFromDense([][]float64{
		{1, 0},
		{0, 1},
		{1, 0},
		{0, 1},
		{0, 1},
	})
	y := []float64{6, 1, 6, 1, 1}

	reg, err := NewLinearRegressionTrainer().Train(X, y)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, reg.Linear.Coefficients[0], 1e-8)
	assert.InDelta(t, -2.5, reg.Linear.Coefficients[1], 1e-8)

	pred, err := reg.Predict(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, pred, 1e-8)
}

func TestTrainersRejectNonFiniteInput(t *testing.T) {
	X := encoding.NewMatrixFromDense([][]float64{{1}, {math.NaN()}, {3}})
	y := []float64{1, 2, 3}

	for _, trainer := range []Trainer{
		NewGradientBoostingTrainer(42),
		NewRandomForestTrainer(42),
		NewLinearRegressionTrainer(),
	} {
		_, err := trainer.Train(X, y)
		assert.ErrorIs(t, err, ErrNonFiniteInput, string(trainer.GetType()))
	}

	_, err := NewLinearRegressionTrainer().Train(column(1, 2), []float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrNonFiniteInput)

	_, err = NewLinearRegressionTrainer().Train(encoding.NewMatrixFromDense(nil), nil)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
}

func TestRegressorPredictChecks(t *testing.T) {
	X, y := stepData()
	reg, err := NewLinearRegressionTrainer().Train(X, y)
	require.NoError(t, err)

	_, err = reg.Predict(encoding.NewMatrixFromDense([][]float64{{1, 2}}))
	assert.Error(t, err)

	_, err = reg.Predict(column(math.NaN()))
	assert.ErrorIs(t, err, ErrNonFiniteInput)

	empty := &Regressor{Kind: models.ModelTypeRandomForest, Features: 1}
	_, err = empty.Predict(column(1))
	assert.Error(t, err)
}

func TestRegressorJSONPredictsIdentically(t *testing.T) {
	X, y := stepData()
	for _, trainer := range []Trainer{
		&GradientBoostingTrainer{NEstimators: 20, LearningRate: 0.1, MaxDepth: 3},
		&RandomForestTrainer{NEstimators: 10, Seed: 7},
		NewLinearRegressionTrainer(),
	} {
		reg, err := trainer.Train(X, y)
		require.NoError(t, err)

		raw, err := json.Marshal(reg)
		require.NoError(t, err)
		var decoded Regressor
		require.NoError(t, json.Unmarshal(raw, &decoded))

		want, err := reg.Predict(X)
		require.NoError(t, err)
		got, err := decoded.Predict(X)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(trainer.GetType()))
	}
}
