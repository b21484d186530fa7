// Package scanner fans probe jobs out to a fixed set of workers and funnels
// their results back to the calling goroutine.
package scanner

import (
	"context"
	"iter"
	"sync"
)

// Sweep runs work for every job in jobs on workers goroutines. Each worker
// is identified by an index in [0, workers) so it can own per-worker state
// such as a socket. collect is called on the caller's goroutine, once per
// result, in completion order.
//
// Enqueueing stops as soon as ctx is done; jobs already handed to a worker
// still produce a result. Sweep returns after every started job has been
// collected.
func Sweep[J, R any](ctx context.Context, workers int, jobs iter.Seq[J], work func(worker int, job J) R, collect func(R)) {
	if workers <= 0 {
		workers = 1
	}

	queue := make(chan J, workers)
	results := make(chan R, workers)
	var wg sync.WaitGroup

	worker := func(id int) {
		defer wg.Done()
		for j := range queue {
			results <- work(id, j)
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(i)
	}

	go func() {
		defer close(queue)
		for j := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- j:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		collect(r)
	}
}
