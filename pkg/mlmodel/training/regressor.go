package training

import (
	"fmt"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// Regressor is a fitted model. Exactly one of Linear, Forest or Boosting is
// set, matching Kind.
type Regressor struct {
	Kind     models.ModelType `json:"kind"`
	Features int              `json:"features"`
	Linear   *LinearModel     `json:"linear,omitempty"`
	Forest   *ForestModel     `json:"forest,omitempty"`
	Boosting *BoostingModel   `json:"boosting,omitempty"`
}

type rowPredictor interface {
	predictRow(idx []int, vals []float64) float64
}

func (r *Regressor) model() (rowPredictor, error) {
	switch {
	case r.Kind == models.ModelTypeLinearRegression && r.Linear != nil:
		return r.Linear, nil
	case r.Kind == models.ModelTypeRandomForest && r.Forest != nil && len(r.Forest.Trees) > 0:
		return r.Forest, nil
	case r.Kind == models.ModelTypeGradientBoosting && r.Boosting != nil:
		return r.Boosting, nil
	}
	return nil, fmt.Errorf("regressor of kind %q has no fitted model", r.Kind)
}

// Predict returns one estimate per row of X
func (r *Regressor) Predict(X *encoding.Matrix) ([]float64, error) {
	m, err := r.model()
	if err != nil {
		return nil, err
	}
	if X.Cols() != r.Features {
		return nil, fmt.Errorf("expected %d features, got %d", r.Features, X.Cols())
	}
	if X.HasNaN() {
		return nil, ErrNonFiniteInput
	}

	out := make([]float64, X.Rows())
	for i := range out {
		idx, vals := X.Row(i)
		out[i] = m.predictRow(idx, vals)
	}
	return out, nil
}
