package mlmodel

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/artifact"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/training"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// PredictionError wraps any failure while scoring a record
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// Predictor scores raw sales records with a persisted pipeline. It is
// read-only after construction and safe to call repeatedly.
type Predictor struct {
	pipeline *training.Pipeline
	version  string
}

// NewPredictor loads the artifact at path. A missing file yields
// artifact.ErrArtifactNotFound.
func NewPredictor(path string) (*Predictor, error) {
	a, err := artifact.Load(path)
	if err != nil {
		return nil, err
	}
	return NewPredictorFromArtifact(a), nil
}

// NewPredictorFromArtifact wraps an already loaded artifact
func NewPredictorFromArtifact(a *artifact.Artifact) *Predictor {
	return &Predictor{pipeline: a.Pipeline, version: a.Version}
}

// Version returns the library version tag stored with the pipeline
func (p *Predictor) Version() string {
	return p.version
}

// Predict returns the estimated sales of one record. The record goes through
// the fitted encoder and regressor only; no feature engineering is applied.
func (p *Predictor) Predict(record models.SalesRecord) (float64, error) {
	out, err := p.pipeline.Predict(RecordFrame(record))
	if err != nil {
		return 0, &PredictionError{Err: err}
	}
	if len(out) != 1 {
		return 0, &PredictionError{Err: fmt.Errorf("expected one prediction, got %d", len(out))}
	}
	return out[0], nil
}

// RecordFrame builds the one-row frame the pipeline expects
func RecordFrame(r models.SalesRecord) *dataframe.DataFrame {
	weight := math.NaN()
	if r.ItemWeight != nil {
		weight = *r.ItemWeight
	}
	str := func(s string) []*string { return []*string{&s} }
	age := r.OutletAge

	return dataframe.NewDataFrame(
		dataset.NewStringSeries(models.ColumnItemIdentifier, str(r.ItemIdentifier)),
		dataset.NewFloatSeries(models.ColumnItemWeight, []float64{weight}),
		dataset.NewStringSeries(models.ColumnItemFatContent, str(r.ItemFatContent)),
		dataset.NewFloatSeries(models.ColumnItemVisibility, []float64{r.ItemVisibility}),
		dataset.NewStringSeries(models.ColumnItemType, str(r.ItemType)),
		dataset.NewFloatSeries(models.ColumnItemMRP, []float64{r.ItemMRP}),
		dataset.NewStringSeries(models.ColumnOutletIdentifier, str(r.OutletIdentifier)),
		dataset.NewStringSeries(models.ColumnOutletSize, []*string{r.OutletSize}),
		dataset.NewStringSeries(models.ColumnOutletLocationType, str(r.OutletLocationType)),
		dataset.NewStringSeries(models.ColumnOutletType, str(r.OutletType)),
		dataset.NewIntSeries(models.ColumnOutletAge, []*int64{&age}),
	)
}

// FormatSales renders an estimate for display, e.g. ₹1,234.57
func FormatSales(v float64) string {
	return "₹" + humanize.FormatFloat("#,###.##", v)
}
