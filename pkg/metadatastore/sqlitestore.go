package metadatastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// SQLiteStore provides SQLite-based persistence for training runs
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based storage instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Format: file:path?param=value
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// In-memory databases report "memory", which is acceptable for testing
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		db.Close()
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a database operation if it fails due to SQLITE_BUSY
// This provides an additional safety net on top of the busy_timeout pragma
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") {
			// Exponential backoff: 10ms, 20ms, 40ms, 80ms, 160ms
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

// initSchema creates the database schema if it doesn't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		best_model TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_status ON training_runs(status);
	CREATE INDEX IF NOT EXISTS idx_training_runs_started_at ON training_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTrainingRun inserts or replaces a training run
func (s *SQLiteStore) SaveTrainingRun(run *models.TrainingRun) error {
	if run.ID == "" {
		return errors.New("training run has no id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal training run: %w", err)
	}

	var finishedAt sql.NullInt64
	if run.FinishedAt != nil {
		finishedAt = sql.NullInt64{Int64: run.FinishedAt.UnixNano(), Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO training_runs (id, status, best_model, started_at, finished_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err = s.retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			run.ID,
			string(run.Status),
			string(run.BestModel),
			run.StartedAt.UnixNano(),
			finishedAt,
			string(data),
		)
		return err
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}

	return nil
}

// GetTrainingRun retrieves a training run by ID
func (s *SQLiteStore) GetTrainingRun(id string) (*models.TrainingRun, error) {
	var data string
	query := `SELECT data FROM training_runs WHERE id = ?`

	err := s.db.QueryRow(query, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: training run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}

	return decodeRun(data)
}

// ListTrainingRuns lists all training runs, newest first
func (s *SQLiteStore) ListTrainingRuns() ([]*models.TrainingRun, error) {
	query := `SELECT data FROM training_runs ORDER BY started_at DESC, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.TrainingRun, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}

		run, err := decodeRun(data)
		if err != nil {
			continue
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// LatestTrainingRun returns the most recently started run with the given
// status, or with any status when status is empty
func (s *SQLiteStore) LatestTrainingRun(status models.RunStatus) (*models.TrainingRun, error) {
	query := `SELECT data FROM training_runs ORDER BY started_at DESC, id LIMIT 1`
	args := []any{}
	if status != "" {
		query = `SELECT data FROM training_runs WHERE status = ? ORDER BY started_at DESC, id LIMIT 1`
		args = append(args, string(status))
	}

	var data string
	err := s.db.QueryRow(query, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no training run", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest training run: %w", err)
	}

	return decodeRun(data)
}

// DeleteTrainingRun deletes a training run
func (s *SQLiteStore) DeleteTrainingRun(id string) error {
	query := `DELETE FROM training_runs WHERE id = ?`
	result, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete training run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: training run %s", ErrNotFound, id)
	}
	return nil
}

func decodeRun(data string) (*models.TrainingRun, error) {
	var run models.TrainingRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal training run: %w", err)
	}
	return &run, nil
}
