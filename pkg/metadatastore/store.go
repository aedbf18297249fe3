package metadatastore

import (
	"errors"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// MetadataStore is the interface for training-run persistence.
// It records what each offline training job did; the fitted pipeline itself
// lives in the artifact file the run points to.
type MetadataStore interface {
	// Training run operations
	SaveTrainingRun(run *models.TrainingRun) error
	GetTrainingRun(id string) (*models.TrainingRun, error)
	ListTrainingRuns() ([]*models.TrainingRun, error)
	LatestTrainingRun(status models.RunStatus) (*models.TrainingRun, error)
	DeleteTrainingRun(id string) error

	Close() error
}
