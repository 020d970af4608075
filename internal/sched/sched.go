// Package sched fans a list of decode jobs out across a bounded worker
// pool while keeping results index-aligned with the input. Position i of
// the returned slice always corresponds to jobs[i] no matter which worker
// finished first.
package sched

import (
	"context"
	"sync"

	"asiread/internal/decode"
)

// Decode runs every job through dec using at most workers goroutines.
//
// workers <= 1 decodes sequentially on the calling goroutine with no pool
// machinery, so side effects happen in input order. Cancellation is
// all-or-nothing: when ctx is done before the batch completes, Decode
// returns nil, meaning no result, never a partial one.
func Decode(ctx context.Context, jobs []decode.Job, dec decode.Decoder, workers int) []decode.Unit {
	if len(jobs) == 0 {
		return nil
	}
	if workers <= 1 {
		return sequential(ctx, jobs, dec)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]decode.Unit, len(jobs))
	tasks := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				if ctx.Err() != nil {
					continue
				}
				results[idx] = decode.Safe(dec, jobs[idx])
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case tasks <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return results
}

func sequential(ctx context.Context, jobs []decode.Job, dec decode.Decoder) []decode.Unit {
	results := make([]decode.Unit, len(jobs))
	for i := range jobs {
		if ctx.Err() != nil {
			return nil
		}
		results[i] = decode.Safe(dec, jobs[i])
	}
	return results
}
