package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// blockingRunner holds each run open until released
type blockingRunner struct {
	calls    atomic.Int32
	finished atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) RunTraining(ctx context.Context) (*models.TrainingRun, error) {
	r.calls.Add(1)
	defer r.finished.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &models.TrainingRun{ID: "run", BestModel: models.ModelTypeGradientBoosting}, nil
}

type failingRunner struct{ calls atomic.Int32 }

func (r *failingRunner) RunTraining(context.Context) (*models.TrainingRun, error) {
	r.calls.Add(1)
	return nil, errors.New("database unreachable")
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	s := NewService(&failingRunner{})
	err := s.Schedule("nightly", "not a cron spec")
	assert.Error(t, err)

	_, err = s.NextRun("nightly")
	assert.Error(t, err)
}

func TestScheduleAndNextRun(t *testing.T) {
	s := NewService(&failingRunner{})
	require.NoError(t, s.Schedule("nightly", "0 2 * * *"))

	next, err := s.NextRun("nightly")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestScheduleReplacesJob(t *testing.T) {
	s := NewService(&failingRunner{})
	require.NoError(t, s.Schedule("retrain", "0 2 * * *"))
	require.NoError(t, s.Schedule("retrain", "30 4 * * *"))

	assert.Len(t, s.cron.Entries(), 1)
	next, err := s.NextRun("retrain")
	require.NoError(t, err)
	assert.Equal(t, 4, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestUnschedule(t *testing.T) {
	s := NewService(&failingRunner{})
	require.NoError(t, s.Schedule("retrain", "@hourly"))
	require.NoError(t, s.Unschedule("retrain"))
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.Unschedule("retrain"))
}

func TestTriggerRunsJob(t *testing.T) {
	runner := &failingRunner{}
	s := NewService(runner)
	require.NoError(t, s.Schedule("retrain", "@daily"))

	s.Trigger("retrain")
	s.Trigger("unknown")
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	runner := newBlockingRunner()
	s := NewService(runner)
	require.NoError(t, s.Schedule("retrain", "@daily"))

	done := make(chan struct{})
	go func() {
		s.Trigger("retrain")
		close(done)
	}()
	<-runner.started

	// Returns immediately because the first run still holds the job
	s.Trigger("retrain")
	assert.Equal(t, int32(1), runner.calls.Load())

	close(runner.release)
	<-done

	s.Trigger("retrain")
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestStopCancelsRunningJob(t *testing.T) {
	runner := newBlockingRunner()
	s := NewService(runner)
	require.NoError(t, s.Schedule("retrain", "@daily"))
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Trigger("retrain")
		close(done)
	}()
	<-runner.started

	s.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("running job was not cancelled")
	}
}

func TestStopWaitsForBackgroundTrigger(t *testing.T) {
	runner := newBlockingRunner()
	s := NewService(runner)
	require.NoError(t, s.Schedule("retrain", "@daily"))
	s.Start()

	s.TriggerAsync("retrain")
	<-runner.started

	s.Stop()
	assert.Equal(t, int32(1), runner.finished.Load())

	// Stopped schedulers start nothing new
	s.TriggerAsync("retrain")
	s.wg.Wait()
	assert.Equal(t, int32(1), runner.calls.Load())
}
