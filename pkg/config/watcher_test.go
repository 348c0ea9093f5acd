package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, "expiration_days: 10\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, 50*time.Millisecond, func(cfg *Config) { changes <- cfg }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("expiration_days: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.ExpirationDays != 20 {
			t.Errorf("ExpirationDays = %d, want 20", cfg.ExpirationDays)
		}
		if GetConfig() != cfg {
			t.Error("global configuration was not replaced")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after file change")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatcher_InvalidFileKeepsConfiguration(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, "expiration_days: 10\n")

	var calls atomic.Int32
	w, err := NewWatcher(path, 50*time.Millisecond, func(*Config) { calls.Add(1) }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	go w.Watch(context.Background())
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("expiration_days: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback invoked %d times for an invalid file", n)
	}
}

func TestWatcher_StopWithoutWatch(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, ""), 0, nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback ran %d times after Stop, want 0", n)
	}
}
