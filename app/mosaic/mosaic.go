// Package mosaic turns the deduplicated object graph into renderable
// thumbnail units: it resolves video sequences against the catalog, matches
// annotations to MP4 proxy references, and materializes one render unit per
// bounding box with a bounded worker pool.
package mosaic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultPoolSize is the worker pool width used when settings do not say
// otherwise.
const DefaultPoolSize = 10

// ErrCancelled signals a user-abandoned batch. Callers must discard any
// partial results and keep their previous state.
var ErrCancelled = errors.New("operation cancelled")

// ProgressFunc reports batch progress to the UI. total may be 0 when unknown.
type ProgressFunc func(completed, total int, message string)

// forEachLimit runs fn(0..n-1) across at most width workers, stopping new
// submissions once ctx is cancelled. Returns ErrCancelled if the batch was
// abandoned; already-running tasks finish first so their results can be
// discarded safely by the caller.
func forEachLimit(ctx context.Context, width, n int, fn func(i int)) error {
	if width < 1 {
		width = 1
	}
	sem := make(chan struct{}, width)
	var wg sync.WaitGroup
	var cancelled atomic.Bool

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			cancelled.Store(true)
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()

	if cancelled.Load() || ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}
