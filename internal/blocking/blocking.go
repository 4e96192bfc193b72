// Package blocking offers a bounded worker pool standing in for "a
// dedicated blocking-task executor": every KV call the HTTP layer makes is
// submitted here instead of running inline on the goroutine that is serving
// the request, so a slow store operation cannot be confused with a stalled
// HTTP handler and vice versa.
package blocking

import "context"

// Pool bounds the number of KV operations in flight at once. A Pool with
// Size 0 behaves as unbounded (every Submit call spawns its own goroutine)
// — the zero value is a sane default.
type Pool struct {
	sem chan struct{}
}

// NewPool constructs a Pool allowing up to size concurrent jobs. size <= 0
// means unbounded.
func NewPool(size int) *Pool {
	if size <= 0 {
		return &Pool{}
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Submit runs f on a dedicated goroutine and returns its result, blocking
// the caller until f completes or ctx is canceled. If ctx is canceled
// first, Submit returns ctx.Err() immediately but f still runs to
// completion in the background — its result is simply discarded.
func Submit[T any](ctx context.Context, p *Pool, f func(context.Context) (T, error)) (T, error) {
	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		if p.sem != nil {
			defer func() { <-p.sem }()
		}
		val, err := f(ctx)
		done <- outcome{val: val, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
