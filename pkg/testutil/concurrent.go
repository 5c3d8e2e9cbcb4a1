// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "pawty/pkg/domain-errors"
)

// ConcurrentResult tallies the outcomes of concurrent test operations by
// domain error code.
type ConcurrentResult struct {
	Successes   int32
	Unavailable int32
	NotFounds   int32
	Errors      int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Unavailable + r.NotFounds + r.Errors
}

// RunConcurrent runs fn in goroutines parallel calls, released together, and
// tallies the results.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, unavailable, notFound, other atomic.Int32
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeUnavailable):
				unavailable.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFound.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:   successes.Load(),
		Unavailable: unavailable.Load(),
		NotFounds:   notFound.Load(),
		Errors:      other.Load(),
	}
}
