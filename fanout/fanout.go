// Package fanout runs per-item operations with a fixed concurrency ceiling,
// keeping results in input order.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ItemError tells which item failed.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Map calls fn for items with at most limit calls in flight. Result of item i
// is stored at position i regardless of completion order. On first failure no
// new items are dispatched, calls in flight are allowed to finish (their
// context is cancelled) and the first error is returned as *ItemError. Items
// never dispatched keep zero results.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, int, T) (R, error)) ([]R, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	results := make([]R, len(items))
	run(ctx, len(items), limit, func(i int) {
		r, err := fn(ctx, i, items[i])
		if err != nil {
			once.Do(func() {
				firstErr = &ItemError{Index: i, Err: err}
				cancel()
			})
			return
		}
		results[i] = r
	})
	if firstErr != nil {
		return results, firstErr
	}
	// parent context was done before everything got dispatched
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// MapIsolated is Map where failures do not affect other items: every item is
// dispatched, errors are returned in a slice parallel to items (nil for
// successful ones). Context cancellation is reported as error of every item
// not yet dispatched.
func MapIsolated[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, int, T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	dispatched := run(ctx, len(items), limit, func(i int) {
		results[i], errs[i] = fn(ctx, i, items[i])
	})
	for i := range items {
		if !dispatched[i] {
			errs[i] = ctx.Err()
		}
	}
	return results, errs
}

// run dispatches indexes 0..n-1 keeping at most limit of them in flight,
// stops dispatching when context is done. Returns which indexes were
// dispatched.
func run(ctx context.Context, n, limit int, work func(int)) []bool {
	dispatched := make([]bool, n)
	if n == 0 {
		return dispatched
	}
	limit = max(1, min(limit, n))

	sem := semaphore.NewWeighted(int64(limit))
	for i := range n {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// slot may be granted on already cancelled context
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}
		dispatched[i] = true
		go func() {
			defer sem.Release(1)
			work(i)
		}()
	}
	// all slots free means every dispatched item is done
	_ = sem.Acquire(context.Background(), int64(limit))
	return dispatched
}
