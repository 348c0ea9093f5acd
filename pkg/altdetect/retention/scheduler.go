package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	lastRun     time.Time
	lastDeleted int64
	lastErr     error
}

// NewScheduler creates a new retention scheduler.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "altdetect.scheduler"),
	}
}

// Start schedules pruning on the pruner's PruneSchedule. An empty schedule
// leaves the scheduler stopped. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.RetentionDays(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// run executes one pruning cycle and records its outcome.
func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("starting scheduled pruning")

	deleted, err := s.pruner.PruneFor(ctx, TriggerScheduled)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastDeleted = deleted
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	s.logger.Debug("scheduled pruning completed", "deleted_count", deleted)
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	// The job itself takes mu when it finishes, so wait without holding it.
	<-c.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// LastRun returns when the last scheduled prune finished, how many
// sightings it removed and its error. The time is zero before the first run.
func (s *Scheduler) LastRun() (time.Time, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastDeleted, s.lastErr
}
