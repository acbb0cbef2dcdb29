// Package workerpool bounds the number of concurrently running
// signature and proof operations so a burst of requests cannot pin
// every CPU in lattice math.
package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent execution of CPU heavy functions.
type Pool struct {
	sem *semaphore.Weighted
}

// New builds a pool allowing up to size concurrent tasks. A size of zero or
// less defaults to GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs fn once a slot is available, or returns the context error if the
// caller gives up while waiting.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
