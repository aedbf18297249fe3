package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// R2Score is the coefficient of determination of predictions against actual.
// A constant target scores 1 when predicted exactly and 0 otherwise.
func R2Score(actual, predictions []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	if floats.Min(actual) == floats.Max(actual) {
		if floats.Equal(actual, predictions) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predictions, actual, nil)
}

// RMSE is the root mean squared error
func RMSE(actual, predictions []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	return floats.Distance(actual, predictions, 2) / math.Sqrt(float64(len(actual)))
}

// Evaluate scores predictions on a held-out set
func Evaluate(actual, predictions []float64) (*models.PerformanceMetrics, error) {
	if len(actual) != len(predictions) {
		return nil, fmt.Errorf("got %d predictions for %d targets", len(predictions), len(actual))
	}
	return &models.PerformanceMetrics{
		R2Score: R2Score(actual, predictions),
		RMSE:    RMSE(actual, predictions),
	}, nil
}
