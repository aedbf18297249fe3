package models

import "time"

// ModelType identifies a candidate regressor
type ModelType string

const (
	ModelTypeGradientBoosting ModelType = "gradient_boosting"
	ModelTypeRandomForest     ModelType = "random_forest"
	ModelTypeLinearRegression ModelType = "linear_regression"
)

// RunStatus represents the current status of a training run
type RunStatus string

const (
	RunStatusTraining RunStatus = "training" // Run in progress
	RunStatusTrained  RunStatus = "trained"  // Best pipeline persisted
	RunStatusFailed   RunStatus = "failed"   // Run aborted
)

// PerformanceMetrics holds held-out regression metrics
type PerformanceMetrics struct {
	R2Score float64 `json:"r2_score"`
	RMSE    float64 `json:"rmse"`
}

// CandidateResult records how one candidate fared in a run
type CandidateResult struct {
	Model   ModelType           `json:"model"`
	Metrics *PerformanceMetrics `json:"metrics,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// TrainingRun is the registry record of one offline training job
type TrainingRun struct {
	ID           string              `json:"id"`
	Status       RunStatus           `json:"status"`
	RowCount     int                 `json:"row_count"`
	TrainRows    int                 `json:"train_rows"`
	TestRows     int                 `json:"test_rows"`
	RandomSeed   int64               `json:"random_seed"`
	Candidates   []CandidateResult   `json:"candidates,omitempty"`
	BestModel    ModelType           `json:"best_model,omitempty"`
	BestMetrics  *PerformanceMetrics `json:"best_metrics,omitempty"`
	ArtifactPath string              `json:"artifact_path,omitempty"`
	Version      string              `json:"version,omitempty"`
	FailReason   string              `json:"fail_reason,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
