package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsTasks(t *testing.T) {
	pool := NewPool(&Config{Workers: 3, QueueSize: 10, SubmitTimeout: time.Second})

	var count atomic.Int64
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(func(context.Context) { count.Add(1) }))
	}

	require.NoError(t, pool.Shutdown(5*time.Second))
	assert.Equal(t, int64(50), count.Load(), "queued tasks are drained on shutdown")
	assert.Equal(t, int64(50), pool.Completed())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(nil)
	require.NoError(t, pool.Shutdown(time.Second))

	err := pool.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)

	// Shutdown is repeatable.
	assert.NoError(t, pool.Shutdown(time.Second))
}

func TestPool_QueueFull(t *testing.T) {
	pool := NewPool(&Config{Workers: 1, QueueSize: 0, SubmitTimeout: 20 * time.Millisecond})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	err := pool.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, pool.Shutdown(time.Second))
}

func TestPool_ShutdownTimeoutCancelsTasks(t *testing.T) {
	pool := NewPool(&Config{Workers: 1, QueueSize: 1, SubmitTimeout: time.Second})
	started := make(chan struct{})
	cancelled := make(chan struct{})

	require.NoError(t, pool.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))
	<-started

	err := pool.Shutdown(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrShutdownTimeout)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context was not cancelled")
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool(&Config{Workers: 1, QueueSize: 4, SubmitTimeout: time.Second})

	var ran atomic.Bool
	require.NoError(t, pool.Submit(func(context.Context) { panic("boom") }))
	require.NoError(t, pool.Submit(func(context.Context) { ran.Store(true) }))

	require.NoError(t, pool.Shutdown(time.Second))
	assert.True(t, ran.Load(), "worker survives a panicking task")
}

func TestMainQueue_RunPending(t *testing.T) {
	q := NewMainQueue(4)

	var order []int
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Post(func() { order = append(order, i) }))
	}

	assert.Equal(t, 3, q.RunPending())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Zero(t, q.RunPending())
}

func TestMainQueue_RunUntilCancelled(t *testing.T) {
	q := NewMainQueue(1)
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{})
	go func() {
		_ = q.Post(func() { close(ran) })
	}()

	finished := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(finished)
	}()

	<-ran
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMainQueue_Close(t *testing.T) {
	q := NewMainQueue(1)
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Post(func() {}), ErrQueueClosed)
	q.Run(context.Background()) // returns immediately
}

func TestGo_HandsResultToMainQueue(t *testing.T) {
	pool := NewPool(&Config{Workers: 2, QueueSize: 8, SubmitTimeout: time.Second})
	q := NewMainQueue(8)

	var workerG, mainG sync.WaitGroup
	workerG.Add(2)
	mainG.Add(2)

	var results []string
	var errs []error

	require.NoError(t, Go(pool, q, func(context.Context) (string, error) {
		defer workerG.Done()
		return "alice", nil
	}, func(v string, err error) {
		defer mainG.Done()
		results = append(results, v)
	}))

	wantErr := errors.New("lookup failed")
	require.NoError(t, Go(pool, q, func(context.Context) (string, error) {
		defer workerG.Done()
		return "", wantErr
	}, func(_ string, err error) {
		defer mainG.Done()
		errs = append(errs, err)
	}))

	workerG.Wait()
	require.NoError(t, pool.Shutdown(time.Second))

	// Both callbacks are posted by the time the pool has drained.
	assert.Equal(t, 2, q.RunPending())
	mainG.Wait()

	assert.Equal(t, []string{"alice"}, results)
	assert.Equal(t, []error{wantErr}, errs)
}

func TestGo_NilCallback(t *testing.T) {
	pool := NewPool(&Config{Workers: 1, QueueSize: 1, SubmitTimeout: time.Second})
	q := NewMainQueue(1)

	var ran atomic.Bool
	require.NoError(t, Go(pool, q, func(context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	}, nil))

	require.NoError(t, pool.Shutdown(time.Second))
	assert.True(t, ran.Load())
	assert.Zero(t, q.RunPending())
}
