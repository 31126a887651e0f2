package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
	"job-applier-go/internal/service"
)

// Runner executes one application run
type Runner interface {
	Run(ctx context.Context) (*service.Report, error)
	LastReport() *service.Report
}

// Scheduler manages the periodic application runs
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	interval  int
	runner    Runner
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	busy      atomic.Bool
	isRunning bool
	mu        sync.RWMutex

	lastRunMu sync.Mutex
	lastRun   time.Time
}

// NewScheduler creates a new scheduler. Runs are cancelled when ctx is done.
func NewScheduler(ctx context.Context, cfg config.SchedulerConfig, runner Runner) *Scheduler {
	return &Scheduler{
		interval: cfg.IntervalMinutes,
		runner:   runner,
		parent:   ctx,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	entryID, err := c.AddFunc(fmt.Sprintf("@every %dm", s.interval), s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(s.parent)
	s.cron = c
	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.interval)
	return nil
}

// Stop stops the scheduler and waits for a running application run to end
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) runScheduled() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping application run")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	if _, err := s.run(ctx); err != nil && !errors.Is(err, service.ErrRunInProgress) {
		logrus.WithError(err).Error("Scheduled application run failed")
	}
}

func (s *Scheduler) run(ctx context.Context) (*service.Report, error) {
	if !s.busy.CompareAndSwap(false, true) {
		logrus.Info("Application run already in progress, skipping")
		return nil, service.ErrRunInProgress
	}
	s.wg.Add(1)
	return s.execute(ctx)
}

// execute expects busy to be held and the wait group to be incremented
func (s *Scheduler) execute(ctx context.Context) (*service.Report, error) {
	defer s.wg.Done()
	defer s.busy.Store(false)

	s.lastRunMu.Lock()
	s.lastRun = time.Now()
	s.lastRunMu.Unlock()

	report, err := s.runner.Run(ctx)
	if errors.Is(err, service.ErrRunInProgress) {
		logrus.Info("Application run already in progress, skipping")
	}
	return report, err
}

// RunOnce runs the application workflow once and waits for its report
func (s *Scheduler) RunOnce(ctx context.Context) (*service.Report, error) {
	logrus.Info("Running application workflow once")
	return s.run(ctx)
}

// Trigger starts one application run in the background on the scheduler's
// context and returns without waiting. It fails with service.ErrRunInProgress
// when a run is already active.
func (s *Scheduler) Trigger() error {
	if !s.busy.CompareAndSwap(false, true) {
		return service.ErrRunInProgress
	}
	s.wg.Add(1)

	logrus.Info("Application run triggered")
	go func() {
		report, err := s.execute(s.parent)
		if err != nil {
			if !errors.Is(err, service.ErrRunInProgress) {
				logrus.WithError(err).Error("Triggered application run failed")
			}
			return
		}
		logrus.WithFields(logrus.Fields{
			"run_id":   report.RunID,
			"duration": report.Duration.String(),
		}).Info("Triggered application run finished")
	}()
	return nil
}

// IsBusy reports whether an application run is in flight
func (s *Scheduler) IsBusy() bool {
	return s.busy.Load()
}

// LastReport returns the report of the latest finished run, if any
func (s *Scheduler) LastReport() *service.Report {
	return s.runner.LastReport()
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the start time of the last run, scheduled or manual
func (s *Scheduler) GetLastRun() time.Time {
	s.lastRunMu.Lock()
	defer s.lastRunMu.Unlock()
	return s.lastRun
}

// Wait waits for in-flight runs to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
