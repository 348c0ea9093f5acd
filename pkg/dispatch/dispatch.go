package dispatch

import "context"

// Go runs work on pool and posts then(result, err) to loop when it
// completes. A nil then discards the result. The returned error reports
// only whether the work was queued.
func Go[T any](pool *Pool, loop *MainQueue, work func(context.Context) (T, error), then func(T, error)) error {
	return pool.Submit(func(ctx context.Context) {
		v, err := work(ctx)
		if then == nil {
			return
		}
		if postErr := loop.Post(func() { then(v, err) }); postErr != nil {
			pool.logger.Warn("result dropped, main queue closed", "error", postErr)
		}
	})
}
