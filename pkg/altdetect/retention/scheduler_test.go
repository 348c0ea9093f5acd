package retention

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func newTestPruner(t *testing.T, schedule string) *Pruner {
	t.Helper()
	return &Pruner{
		store: newTestStore(t),
		config: &Config{
			PruneSchedule: schedule,
			RetentionDays: 60,
		},
		days:   60,
		logger: slog.Default(),
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{"valid daily schedule", "0 3 * * *", true, false},
		{"valid hourly schedule", "0 * * * *", true, false},
		{"empty schedule - no error, not running", "", false, false},
		{"invalid schedule", "invalid cron", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := NewScheduler(newTestPruner(t, tt.schedule))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}

			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning && scheduler.NextRun() == nil {
				t.Error("NextRun() returned nil for running scheduler")
			}

			scheduler.Stop()

			if scheduler.IsRunning() {
				t.Error("scheduler still running after Stop()")
			}
		})
	}
}

func TestScheduler_GracefulShutdown(t *testing.T) {
	scheduler := NewScheduler(newTestPruner(t, "0 3 * * *"))

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler still running after context cancelled")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	scheduler := NewScheduler(newTestPruner(t, "0 3 * * *"))

	if next := scheduler.NextRun(); next != nil {
		t.Errorf("NextRun() before start = %v, want nil", next)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer scheduler.Stop()

	next := scheduler.NextRun()
	if next == nil {
		t.Fatal("NextRun() after start returned nil")
	}
	if !next.After(time.Now()) {
		t.Errorf("NextRun() = %v, want time in future", next)
	}
	if next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("NextRun() = %v, want 03:00", next)
	}
}

func TestScheduler_MultipleStartStop(t *testing.T) {
	scheduler := NewScheduler(newTestPruner(t, "0 * * * *"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := scheduler.Start(ctx); err != nil {
			t.Fatalf("Start() iteration %d failed: %v", i, err)
		}
		if !scheduler.IsRunning() {
			t.Errorf("IsRunning() = false after Start() iteration %d", i)
		}
		if n := len(scheduler.cron.Entries()); n != 1 {
			t.Errorf("iteration %d: %d cron entries, want 1", i, n)
		}

		scheduler.Stop()

		if scheduler.IsRunning() {
			t.Errorf("IsRunning() = true after Stop() iteration %d", i)
		}
	}
}

func TestScheduler_RunRecordsOutcome(t *testing.T) {
	pruner := newTestPruner(t, "0 3 * * *")
	seed(t, pruner.store, "Old", "U1", "1.1.1.1", 100*24*time.Hour)

	scheduler := NewScheduler(pruner)
	if at, _, _ := scheduler.LastRun(); !at.IsZero() {
		t.Errorf("LastRun() before any run = %v, want zero", at)
	}

	scheduler.run(context.Background())

	at, deleted, err := scheduler.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if at.IsZero() {
		t.Error("LastRun() time not recorded")
	}
	if deleted != 1 {
		t.Errorf("LastRun() deleted = %d, want 1", deleted)
	}
}

func TestPruner_StartStop(t *testing.T) {
	pruner := NewPruner(newTestStore(t), &Config{
		PruneSchedule: "0 3 * * *",
		RetentionDays: 90,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !pruner.scheduler.IsRunning() {
		t.Error("scheduler not running after Pruner.Start()")
	}
	if pruner.NextPruning() == nil {
		t.Error("NextPruning() returned nil")
	}

	pruner.Stop()

	if pruner.scheduler.IsRunning() {
		t.Error("scheduler still running after Pruner.Stop()")
	}
}
