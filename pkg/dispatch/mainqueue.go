package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned when posting to a closed main queue.
var ErrQueueClosed = errors.New("dispatch: main queue closed")

// MainQueue serializes callbacks onto the primary loop.
type MainQueue struct {
	ch     chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewMainQueue creates a main queue buffering up to size callbacks.
func NewMainQueue(size int) *MainQueue {
	if size < 0 {
		size = 0
	}
	return &MainQueue{
		ch:     make(chan func(), size),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "dispatch.main"),
	}
}

// Post queues fn for the primary loop, blocking while the buffer is full.
func (q *MainQueue) Post(fn func()) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- fn:
		return nil
	case <-q.done:
		return ErrQueueClosed
	}
}

// Run executes posted callbacks on the calling goroutine until ctx is done
// or the queue is closed. Callbacks already queued at that point are run
// before returning.
func (q *MainQueue) Run(ctx context.Context) {
	for {
		select {
		case fn := <-q.ch:
			q.call(fn)
		case <-ctx.Done():
			q.RunPending()
			return
		case <-q.done:
			q.RunPending()
			return
		}
	}
}

// RunPending executes every callback currently queued without waiting for
// more. Returns the number executed.
func (q *MainQueue) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-q.ch:
			q.call(fn)
			n++
		default:
			return n
		}
	}
}

// Close stops Run and rejects further posts.
func (q *MainQueue) Close() {
	q.once.Do(func() { close(q.done) })
}

func (q *MainQueue) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("main queue callback panicked", "panic", r)
		}
	}()
	fn()
}
