// Package workpool provides a bounded pool of goroutines for batch
// extraction.
//
// A [Pool] runs submitted jobs on a fixed number of workers fed from a
// bounded queue. Submit blocks while the queue is full, which gives callers
// natural back-pressure. Jobs report their own outcome; the pool only counts
// failures and recovers panics so one bad transcript cannot take a worker
// down.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Job is a unit of work submitted to the pool. ctx is the pool's context,
// cancelled when the pool is stopped.
type Job func(ctx context.Context) error

// ErrPoolClosed is returned by [Pool.Submit] after [Pool.Close].
var ErrPoolClosed = errors.New("workpool: pool closed")

// Pool runs jobs using a fixed number of goroutines. It is safe for
// concurrent use.
type Pool struct {
	jobs    chan Job
	done    chan struct{}
	workers int

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	doneOnce  sync.Once

	failed atomic.Int64
}

// New creates a pool with the given number of workers and queue capacity.
// Non-positive values fall back to one worker and a queue twice the worker
// count.
func New(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &Pool{
		jobs:    make(chan Job, queue),
		done:    make(chan struct{}),
		workers: workers,
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Failed returns how many jobs returned an error or panicked.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Start launches the workers. They run until ctx is done or [Pool.Close] is
// called. Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for range p.workers {
			p.wg.Add(1)
			go p.work(ctx)
		}
	})
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.run(ctx, job); err != nil {
				p.failed.Add(1)
				slog.Debug("workpool: job failed", "err", err)
			}
		}
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workpool: job panicked: %v", r)
			slog.Error("workpool: job panicked", "panic", r)
		}
	}()
	return job(ctx)
}

// Submit enqueues job, blocking while the queue is full. It returns
// [ErrPoolClosed] once the pool is closing and ctx.Err() when ctx ends first.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, lets the workers drain the queue and waits for
// them to exit. Submitters blocked on a full queue return [ErrPoolClosed].
func (p *Pool) Close() {
	p.doneOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
