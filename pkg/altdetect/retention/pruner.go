package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days a sighting is kept. Zero expires
	// every sighting on the next prune.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 60,
		PruneSchedule: "0 3 * * *",
	}
}

// Prune triggers reported to the observer.
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerCommand   = "command"
)

// MaxRetentionDays is the longest retention period, about a century.
// Window saturates at this bound.
const MaxRetentionDays = 36500

// Window converts a day count to a retention window.
func Window(days int) time.Duration {
	if days > MaxRetentionDays {
		days = MaxRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Pruner purges expired sightings from a store.
type Pruner struct {
	store     altdetect.Store
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler

	mu       sync.RWMutex
	days     int
	observer PruneObserver
}

// PruneObserver receives the outcome of every prune run through PruneFor.
// trigger is one of the Trigger constants.
type PruneObserver func(trigger string, deleted int64, err error)

// NewPruner creates a new retention pruner.
func NewPruner(store altdetect.Store, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		store:  store,
		config: config,
		days:   config.RetentionDays,
		logger: slog.Default().With("component", "altdetect.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// RetentionDays returns the current retention period.
func (p *Pruner) RetentionDays() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.days
}

// SetRetentionDays changes the retention period used by later prunes.
func (p *Pruner) SetRetentionDays(days int) {
	p.mu.Lock()
	old := p.days
	p.days = days
	p.mu.Unlock()

	if old != days {
		p.logger.Info("retention period changed", "old_days", old, "new_days", days)
	}
}

// SetObserver installs fn as the prune observer. nil removes it.
func (p *Pruner) SetObserver(fn PruneObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
}

// PruneFor runs Prune and reports the outcome to the observer under trigger.
func (p *Pruner) PruneFor(ctx context.Context, trigger string) (int64, error) {
	deleted, err := p.Prune(ctx)

	p.mu.RLock()
	observer := p.observer
	p.mu.RUnlock()
	if observer != nil {
		observer(trigger, deleted, err)
	}
	return deleted, err
}

// Prune deletes sightings older than the retention period and the identities
// they leave behind. Returns the number of sightings deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	days := p.RetentionDays()
	if days < 0 {
		return 0, fmt.Errorf("retention days must be >= 0, got %d", days)
	}

	p.logger.Debug("pruning by age",
		"cutoff_time", time.Now().Add(-Window(days)),
		"retention_days", days,
	)

	deleted, err := p.store.PurgeExpired(ctx, Window(days))
	if err != nil {
		return 0, fmt.Errorf("purge expired failed: %w", err)
	}

	if deleted == 0 {
		p.logger.Debug("no records pruned", "retention_days", days)
	} else {
		p.logger.Info("records removed",
			"deleted_count", deleted,
			"retention_days", days,
		)
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler, waiting for a running prune.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

// Summary reports a prune outcome as
// "N record(s) removed, expiration time D days".
func Summary(removed int64, days int) string {
	noun := "records"
	if removed == 1 {
		noun = "record"
	}
	return fmt.Sprintf("%d %s removed, expiration time %d days", removed, noun, days)
}

// ExpirationBucket groups a retention period for reporting.
func ExpirationBucket(days int) string {
	switch {
	case days <= 0:
		return "0"
	case days <= 30:
		return "1-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	default:
		return ">90"
	}
}
