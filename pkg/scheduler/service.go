package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/models"
)

// TrainingRunner runs one training job
type TrainingRunner interface {
	RunTraining(ctx context.Context) (*models.TrainingRun, error)
}

// Service retrains on cron schedules. A tick that fires while the previous
// run of the same job is still going is skipped.
type Service struct {
	runner TrainingRunner
	cron   *cron.Cron
	logger *logging.FieldLogger

	mu   sync.Mutex
	jobs map[string]cron.EntryID // Maps job name to cron entry ID
	wg   sync.WaitGroup          // runs started by TriggerAsync

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new scheduler service
func NewService(runner TrainingRunner) *Service {
	logger := logging.GetLogger().WithFields(logging.Component("scheduler"))
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		runner: runner,
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the scheduler
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("training scheduler started", logging.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler, cancels in-flight runs and waits for them to return
func (s *Service) Stop() {
	stopped := s.cron.Stop()
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("training scheduler stopped")
}

// Schedule registers a named retraining job on a standard five-field cron
// spec. An existing job with the same name is replaced.
func (s *Service) Schedule(name, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.runJob(name) })
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	s.jobs[name] = entryID

	s.logger.Info("scheduled training job",
		logging.String("job", name),
		logging.String("schedule", spec),
	)
	return nil
}

// Unschedule removes a named job
func (s *Service) Unschedule(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}
	s.cron.Remove(entryID)
	delete(s.jobs, name)
	return nil
}

// NextRun reports when a named job fires next
func (s *Service) NextRun(name string) (time.Time, error) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("job not found: %s", name)
	}

	entry := s.cron.Entry(entryID)
	if entry.Next.IsZero() {
		// Not started yet; compute from the schedule itself
		return entry.Schedule.Next(time.Now()), nil
	}
	return entry.Next, nil
}

// Trigger runs a named job now, through the same wrappers a cron tick uses.
// It is skipped if that job is already running.
func (s *Service) Trigger(name string) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	if entry := s.cron.Entry(entryID); entry.WrappedJob != nil {
		entry.WrappedJob.Run()
	}
}

// TriggerAsync runs a named job in the background. Stop waits for it. It is a
// no-op once the scheduler has been stopped.
func (s *Service) TriggerAsync(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Trigger(name)
	}()
}

func (s *Service) runJob(name string) {
	start := time.Now()
	run, err := s.runner.RunTraining(s.ctx)
	if err != nil {
		s.logger.Error("scheduled training failed", err, logging.String("job", name))
		return
	}
	s.logger.Info("scheduled training finished",
		logging.String("job", name),
		logging.String("run_id", run.ID),
		logging.String("model", string(run.BestModel)),
		logging.String("duration", time.Since(start).Round(time.Millisecond).String()),
	)
}

// cronLogger routes cron's own messages through the application logger
type cronLogger struct {
	logger *logging.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, err, kvFields(keysAndValues)...)
}

func kvFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.String(fmt.Sprint(keysAndValues[i]), fmt.Sprint(keysAndValues[i+1])))
	}
	return fields
}
