// Package workerpool runs independent jobs concurrently with an optional
// limit on how many run at once, and waits for all of them.
package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/andrej220/netaudit/internal/lg"
	"golang.org/x/sync/errgroup"
)

type JobFunc[T any] func(ctx context.Context, payload T) error

type Job[T any] struct {
	Payload     T
	Fn          JobFunc[T]
	Ctx         context.Context
	CleanupFunc func()
}

// Pool never cancels sibling jobs: a failing job does not stop the others.
type Pool[T any] struct {
	g             errgroup.Group
	activeWorkers int32
	maxWorkers    int
}

// NewPool creates a pool running at most maxWorkers jobs at a time.
// maxWorkers <= 0 means no limit.
func NewPool[T any](maxWorkers int) *Pool[T] {
	p := &Pool[T]{maxWorkers: maxWorkers}
	if maxWorkers > 0 {
		p.g.SetLimit(maxWorkers)
	}
	return p
}

// Submit starts job, blocking while the pool is at its limit.
func (p *Pool[T]) Submit(job Job[T]) {
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	p.g.Go(func() error { return p.worker(job) })
}

// Wait blocks until every submitted job has returned and reports the first
// job error, if any.
func (p *Pool[T]) Wait() error {
	return p.g.Wait()
}

func (p *Pool[T]) worker(job Job[T]) (err error) {
	atomic.AddInt32(&p.activeWorkers, 1)
	defer atomic.AddInt32(&p.activeWorkers, -1)
	defer func() {
		if job.CleanupFunc != nil {
			job.CleanupFunc()
		}
	}()

	logger := lg.FromContext(job.Ctx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			logger.Error("worker recovered from panic", lg.Any("panic", r))
		}
	}()

	logger.Debug("worker started", lg.Int("workers", int(atomic.LoadInt32(&p.activeWorkers))))
	if err = job.Fn(job.Ctx, job.Payload); err != nil {
		logger.Warn("worker error", lg.Err(err))
		return err
	}
	logger.Debug("worker finished")
	return nil
}

func (p *Pool[T]) ActiveWorkers() int32 {
	return atomic.LoadInt32(&p.activeWorkers)
}

func (p *Pool[T]) MaxWorkers() int {
	return p.maxWorkers
}
