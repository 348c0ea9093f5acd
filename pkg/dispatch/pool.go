package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrPoolClosed is returned when submitting to a pool that is shutting down.
	ErrPoolClosed = errors.New("dispatch: pool closed")

	// ErrQueueFull is returned when a task cannot be queued within the
	// submit timeout.
	ErrQueueFull = errors.New("dispatch: queue full")

	// ErrShutdownTimeout is returned when workers do not finish in time.
	ErrShutdownTimeout = errors.New("dispatch: shutdown timed out")
)

// Task is a unit of blocking work. ctx is cancelled when a shutdown times out.
type Task func(ctx context.Context)

// Config contains configuration for a worker pool.
type Config struct {
	// Workers is the number of worker goroutines.
	// Default: 4
	Workers int

	// QueueSize is the number of tasks that can wait for a worker.
	// Default: 256
	QueueSize int

	// SubmitTimeout bounds how long Submit waits for queue space.
	// Default: 5 seconds
	SubmitTimeout time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:       4,
		QueueSize:     256,
		SubmitTimeout: 5 * time.Second,
	}
}

// Pool runs tasks on background workers.
type Pool struct {
	config *Config
	tasks  chan Task
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once

	inflight  atomic.Int64
	completed atomic.Int64
}

// NewPool creates a pool and starts its workers.
func NewPool(config *Config) *Pool {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: config,
		tasks:  make(chan Task, config.QueueSize),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "dispatch.pool"),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.logger.Debug("worker pool started",
		"workers", config.Workers,
		"queue_size", config.QueueSize,
	)

	return p
}

// Submit queues task. It fails with ErrQueueFull when no space frees up
// within the submit timeout and with ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	var timeout <-chan time.Time
	if p.config.SubmitTimeout > 0 {
		timer := time.NewTimer(p.config.SubmitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-timeout:
		p.logger.Error("task queue full, dropping task",
			"queue_size", p.config.QueueSize,
		)
		return ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// InFlight returns the number of tasks currently running.
func (p *Pool) InFlight() int64 {
	return p.inflight.Load()
}

// Completed returns the number of tasks that have finished.
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

// Shutdown stops accepting tasks and waits up to timeout for queued and
// running tasks to finish. On timeout the task context is cancelled and
// ErrShutdownTimeout returned; workers are not waited for further.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.stopOnce.Do(func() {
		close(p.done)

		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})

	p.logger.Info("shutting down worker pool",
		"pending_count", p.Pending(),
		"in_flight", p.InFlight(),
	)

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.cancel()
		p.logger.Info("worker pool shut down complete")
		return nil
	case <-time.After(timeout):
		p.cancel()
		p.logger.Warn("worker pool shutdown timed out",
			"timeout", timeout,
			"in_flight", p.InFlight(),
		)
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, timeout)
	}
}

// worker runs tasks until the queue is closed and drained.
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	p.inflight.Add(1)
	defer func() {
		p.inflight.Add(-1)
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "panic", r)
		}
	}()

	task(p.ctx)
}
