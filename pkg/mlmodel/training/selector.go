package training

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// ErrNoCandidates is returned when no candidate produced a fitted pipeline
var ErrNoCandidates = errors.New("no candidate model could be trained")

// CandidateError reports which candidate failed
type CandidateError struct {
	Model models.ModelType
	Err   error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s failed: %v", e.Model, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// Candidate is one entry of the ordered model search
type Candidate struct {
	Model   models.ModelType
	Trainer Trainer
}

// DefaultCandidates returns gradient boosting, random forest and linear
// regression, in that order
func DefaultCandidates(seed int64) []Candidate {
	factory := NewTrainerFactory(seed)
	order := []models.ModelType{
		models.ModelTypeGradientBoosting,
		models.ModelTypeRandomForest,
		models.ModelTypeLinearRegression,
	}
	candidates := make([]Candidate, 0, len(order))
	for _, m := range order {
		trainer, _ := factory.GetTrainer(m)
		candidates = append(candidates, Candidate{Model: m, Trainer: trainer})
	}
	return candidates
}

// SelectOptions tunes SelectBest
type SelectOptions struct {
	// SkipFailed records failed candidates and keeps going instead of aborting
	SkipFailed bool
}

// Selection is the outcome of a model search
type Selection struct {
	Pipeline    *Pipeline
	BestModel   models.ModelType
	BestMetrics models.PerformanceMetrics
	Results     []models.CandidateResult
}

// SelectBest fits every candidate on the training split, scores it on the
// test split and keeps the pipeline with the highest R². A later candidate
// must score strictly higher to replace the current best.
func SelectBest(ctx context.Context, candidates []Candidate, categorical []string, split *Split, opts SelectOptions) (*Selection, error) {
	logger := logging.GetLogger().WithFields(logging.Component("training"))

	sel := &Selection{}
	bestR2 := math.Inf(-1)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		metrics, pipeline, err := evaluateCandidate(c, categorical, split)
		if err != nil {
			cerr := &CandidateError{Model: c.Model, Err: err}
			if !opts.SkipFailed {
				return nil, cerr
			}
			logger.Warn("skipping failed candidate",
				logging.String("model", string(c.Model)),
				logging.Error(err),
			)
			sel.Results = append(sel.Results, models.CandidateResult{Model: c.Model, Error: err.Error()})
			continue
		}

		logger.Info("candidate scored",
			logging.String("model", string(c.Model)),
			logging.Float("r2", metrics.R2Score),
			logging.Float("rmse", metrics.RMSE),
		)
		sel.Results = append(sel.Results, models.CandidateResult{Model: c.Model, Metrics: metrics})

		if metrics.R2Score > bestR2 {
			bestR2 = metrics.R2Score
			sel.Pipeline = pipeline
			sel.BestModel = c.Model
			sel.BestMetrics = *metrics
		}
	}

	if sel.Pipeline == nil {
		return nil, ErrNoCandidates
	}

	logger.Info("selected best model",
		logging.String("model", string(sel.BestModel)),
		logging.Float("r2", sel.BestMetrics.R2Score),
		logging.Float("rmse", sel.BestMetrics.RMSE),
	)
	return sel, nil
}

func evaluateCandidate(c Candidate, categorical []string, split *Split) (*models.PerformanceMetrics, *Pipeline, error) {
	if c.Trainer == nil {
		return nil, nil, fmt.Errorf("no trainer for %s", c.Model)
	}
	pipeline, err := FitPipeline(c.Trainer, categorical, split.TrainX, split.TrainY)
	if err != nil {
		return nil, nil, err
	}
	predictions, err := pipeline.Predict(split.TestX)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := Evaluate(split.TestY, predictions)
	if err != nil {
		return nil, nil, err
	}
	return metrics, pipeline, nil
}
