// Package dispatch moves blocking work off the primary loop and hands the
// results back to it.
//
// A Pool runs tasks on a fixed set of worker goroutines. A MainQueue is the
// primary loop: it executes posted callbacks one at a time on the goroutine
// that calls Run. Go combines the two:
//
//	dispatch.Go(pool, main,
//	    func(ctx context.Context) (string, error) {
//	        return lookup(ctx, name) // runs on a worker
//	    },
//	    func(summary string, err error) {
//	        notify(summary) // runs on the primary loop
//	    })
//
// Shutdown drains queued tasks with a bounded wait; tasks still running when
// the wait expires see their context cancelled.
package dispatch
