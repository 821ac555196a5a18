package utils

import (
	"context"
	"sync"
)

// ParallelForEach runs fn over items with at most workers goroutines,
// returning one error slot per item in item order. Each index is handed to
// exactly one worker, so the slots need no lock; the final wait publishes
// the writes. Items that never ran because ctx was cancelled get ctx.Err()
// instead of a nil that would read as success.
func ParallelForEach[T any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, index int, item T) error) []error {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	errs := make([]error, len(items))
	ran := make([]bool, len(items))

	indexes := make(chan int, len(items))
	for i := range items {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if ctx.Err() != nil {
					return
				}
				errs[i] = fn(ctx, i, items[i])
				ran[i] = true
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range errs {
			if !ran[i] {
				errs[i] = err
			}
		}
	}
	return errs
}

// FirstError returns the first non-nil entry of errs, or nil when every
// entry is nil.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
