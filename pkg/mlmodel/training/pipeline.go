package training

import (
	"errors"
	"fmt"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
)

// Pipeline chains the fitted encoder and regressor
type Pipeline struct {
	Encoder   *encoding.OneHotEncoder `json:"encoder"`
	Regressor *Regressor              `json:"regressor"`
}

// FitPipeline fits a fresh encoder on X, encodes it and trains the regressor
func FitPipeline(trainer Trainer, categorical []string, X *dataframe.DataFrame, y []float64) (*Pipeline, error) {
	enc := encoding.NewOneHotEncoder(categorical)
	encoded, err := enc.FitTransform(X)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training features: %w", err)
	}
	reg, err := trainer.Train(encoded, y)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Encoder: enc, Regressor: reg}, nil
}

// Predict encodes X with the fitted encoder and runs the regressor
func (p *Pipeline) Predict(X *dataframe.DataFrame) ([]float64, error) {
	if p.Encoder == nil || p.Regressor == nil {
		return nil, errors.New("pipeline is not fitted")
	}
	encoded, err := p.Encoder.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	return p.Regressor.Predict(encoded)
}
