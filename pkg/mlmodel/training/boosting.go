package training

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// BoostingModel is a stage-wise additive model of shallow trees
type BoostingModel struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []*Tree `json:"trees"`
}

func (m *BoostingModel) predictRow(idx []int, vals []float64) float64 {
	out := m.Init
	for _, t := range m.Trees {
		out += m.LearningRate * t.predictRow(idx, vals)
	}
	return out
}

// GradientBoostingTrainer fits squared-error gradient boosting
type GradientBoostingTrainer struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	Seed         int64 // kept for parity with the forest; fitting uses every row and feature
}

// NewGradientBoostingTrainer creates a trainer with 200 stages of depth-3
// trees and a learning rate of 0.1
func NewGradientBoostingTrainer(seed int64) *GradientBoostingTrainer {
	return &GradientBoostingTrainer{
		NEstimators:  200,
		LearningRate: 0.1,
		MaxDepth:     3,
		Seed:         seed,
	}
}

// Train starts from the target mean and fits each tree to the residuals of
// the model so far
func (t *GradientBoostingTrainer) Train(X *encoding.Matrix, y []float64) (*Regressor, error) {
	if err := checkInputs(X, y); err != nil {
		return nil, err
	}
	if t.NEstimators <= 0 {
		return nil, fmt.Errorf("gradient boosting needs at least one stage, got %d", t.NEstimators)
	}
	if t.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %v", t.LearningRate)
	}
	if t.MaxDepth <= 0 {
		return nil, fmt.Errorf("max depth must be positive, got %d", t.MaxDepth)
	}

	n := X.Rows()
	model := &BoostingModel{
		Init:         stat.Mean(y, nil),
		LearningRate: t.LearningRate,
		Trees:        make([]*Tree, 0, t.NEstimators),
	}

	builder := newTreeBuilder(X, t.MaxDepth)
	weight := make([]float64, n)
	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range weight {
		weight[i] = 1
		current[i] = model.Init
	}

	for stage := 0; stage < t.NEstimators; stage++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		tree := builder.build(residual, weight)
		model.Trees = append(model.Trees, tree)
		for i := 0; i < n; i++ {
			idx, vals := X.Row(i)
			current[i] += t.LearningRate * tree.predictRow(idx, vals)
		}
	}

	return &Regressor{
		Kind:     models.ModelTypeGradientBoosting,
		Features: X.Cols(),
		Boosting: model,
	}, nil
}

// GetType returns the model type
func (t *GradientBoostingTrainer) GetType() models.ModelType {
	return models.ModelTypeGradientBoosting
}
