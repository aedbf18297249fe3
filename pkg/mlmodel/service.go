package mlmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
	"github.com/mimir-aip/bigmart-predictor/pkg/dataset"
	"github.com/mimir-aip/bigmart-predictor/pkg/features"
	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/metadatastore"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/artifact"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/training"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// Service runs offline training jobs and records them in the registry
type Service struct {
	cfg        *config.Config
	store      metadatastore.MetadataStore
	logger     *logging.FieldLogger
	candidates []training.Candidate
}

// NewService creates a new training service
func NewService(cfg *config.Config, store metadatastore.MetadataStore) *Service {
	return &Service{
		cfg:        cfg,
		store:      store,
		logger:     logging.GetLogger().WithFields(logging.Component("mlmodel")),
		candidates: training.DefaultCandidates(cfg.Training.RandomSeed),
	}
}

// WithCandidates replaces the default candidate list
func (s *Service) WithCandidates(candidates []training.Candidate) *Service {
	s.candidates = candidates
	return s
}

// RunTraining loads the three source tables, engineers features, selects the
// best candidate and persists it to the configured artifact path. The returned
// run is also saved in the registry, whether it succeeded or not.
func (s *Service) RunTraining(ctx context.Context) (*models.TrainingRun, error) {
	run, err := s.StartTraining()
	if err != nil {
		return nil, err
	}

	if err := s.train(ctx, run); err != nil {
		if ferr := s.FailTraining(run, err); ferr != nil {
			s.logger.Error("failed to record failed run", ferr, logging.String("run_id", run.ID))
		}
		return run, err
	}

	if err := s.CompleteTraining(run); err != nil {
		return run, err
	}
	return run, nil
}

func (s *Service) train(ctx context.Context, run *models.TrainingRun) error {
	loader, err := dataset.NewLoader(ctx, s.cfg.Database)
	if err != nil {
		return err
	}
	defer loader.Close()

	tables, err := loader.Load(ctx, s.cfg.Tables)
	if err != nil {
		return err
	}
	merged, err := dataset.MergeTables(tables)
	if err != nil {
		return fmt.Errorf("failed to merge tables: %w", err)
	}
	run.RowCount = merged.NRows()
	s.logger.Info("loaded training data",
		logging.String("run_id", run.ID),
		logging.Int("rows", run.RowCount),
	)

	engineered, err := features.Transform(merged)
	if err != nil {
		return fmt.Errorf("failed to engineer features: %w", err)
	}
	X, y, err := features.SplitTarget(engineered, models.ColumnItemOutletSales)
	if err != nil {
		return err
	}
	if median, err := stats.Median(y); err == nil {
		p90, _ := stats.Percentile(y, 90)
		s.logger.Debug("target summary",
			logging.String("run_id", run.ID),
			logging.Float("median_sales", median),
			logging.Float("p90_sales", p90),
		)
	}
	split, err := training.SplitFrame(X, y, s.cfg.Training.TestSize, s.cfg.Training.RandomSeed)
	if err != nil {
		return err
	}
	run.TrainRows = len(split.TrainY)
	run.TestRows = len(split.TestY)

	sel, err := training.SelectBest(ctx, s.candidates, features.CategoricalColumns(X), split,
		training.SelectOptions{SkipFailed: s.cfg.Training.SkipFailedCandidates})
	if err != nil {
		return err
	}
	run.Candidates = sel.Results
	run.BestModel = sel.BestModel
	metrics := sel.BestMetrics
	run.BestMetrics = &metrics

	version := training.LibraryVersion()
	if err := artifact.Save(s.cfg.ArtifactPath, sel.Pipeline, version); err != nil {
		return err
	}
	run.ArtifactPath = s.cfg.ArtifactPath
	run.Version = version
	return nil
}

// StartTraining registers a new run in the training state
func (s *Service) StartTraining() (*models.TrainingRun, error) {
	run := &models.TrainingRun{
		ID:         uuid.New().String(),
		Status:     models.RunStatusTraining,
		RandomSeed: s.cfg.Training.RandomSeed,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveTrainingRun(run); err != nil {
		return nil, fmt.Errorf("failed to save training run: %w", err)
	}
	s.logger.Info("training started",
		logging.String("run_id", run.ID),
		logging.Bool("skip_failed", s.cfg.Training.SkipFailedCandidates),
	)
	return run, nil
}

// CompleteTraining marks a run as trained
func (s *Service) CompleteTraining(run *models.TrainingRun) error {
	now := time.Now().UTC()
	run.Status = models.RunStatusTrained
	run.FinishedAt = &now

	if err := s.store.SaveTrainingRun(run); err != nil {
		return fmt.Errorf("failed to complete training: %w", err)
	}
	s.logger.Info("training completed",
		logging.String("run_id", run.ID),
		logging.String("model", string(run.BestModel)),
		logging.String("artifact", run.ArtifactPath),
	)
	return nil
}

// FailTraining marks a run as failed with the given reason
func (s *Service) FailTraining(run *models.TrainingRun, reason error) error {
	now := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.FailReason = reason.Error()
	run.FinishedAt = &now

	s.logger.Error("training failed", reason, logging.String("run_id", run.ID))
	if err := s.store.SaveTrainingRun(run); err != nil {
		return fmt.Errorf("failed to mark training failed: %w", err)
	}
	return nil
}

// GetRun retrieves a training run by ID
func (s *Service) GetRun(id string) (*models.TrainingRun, error) {
	run, err := s.store.GetTrainingRun(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}
	return run, nil
}

// ListRuns lists all training runs, newest first
func (s *Service) ListRuns() ([]*models.TrainingRun, error) {
	runs, err := s.store.ListTrainingRuns()
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent successful run
func (s *Service) LatestRun() (*models.TrainingRun, error) {
	run, err := s.store.LatestTrainingRun(models.RunStatusTrained)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest training run: %w", err)
	}
	return run, nil
}
