package workpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/workpool"
)

func TestPool_RunsJobs(t *testing.T) {
	t.Parallel()

	p := workpool.New(4, 16)
	p.Start(context.Background())

	var ran atomic.Int32
	const jobs = 100
	for range jobs {
		err := p.Submit(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Close()

	if got := ran.Load(); got != jobs {
		t.Fatalf("ran %d jobs, want %d", got, jobs)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	p := workpool.New(3, 32)
	p.Start(context.Background())

	var active, peak atomic.Int32
	for range 20 {
		err := p.Submit(context.Background(), func(context.Context) error {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Close()

	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	p := workpool.New(1, 2)
	p.Start(context.Background())
	p.Close()
	p.Close()

	err := p.Submit(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, workpool.ErrPoolClosed) {
		t.Fatalf("err = %v, want ErrPoolClosed", err)
	}
}

func TestPool_BlockedSubmitReturnsOnClose(t *testing.T) {
	t.Parallel()

	p := workpool.New(1, 1)
	// Workers are not started so the queue stays full.
	if err := p.Submit(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("setup Submit: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(context.Background(), func(context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		if !errors.Is(err, workpool.ErrPoolClosed) {
			t.Fatalf("err = %v, want ErrPoolClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Submit did not return after Close")
	}
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	t.Parallel()

	p := workpool.New(1, 1)
	defer p.Close()
	if err := p.Submit(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("setup Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestPool_CountsFailuresAndRecoversPanics(t *testing.T) {
	t.Parallel()

	p := workpool.New(2, 4)
	p.Start(context.Background())

	var ran atomic.Int32
	jobs := []workpool.Job{
		func(context.Context) error { return errors.New("bad transcript") },
		func(context.Context) error { panic("boom") },
		func(context.Context) error { ran.Add(1); return nil },
	}
	for _, j := range jobs {
		if err := p.Submit(context.Background(), j); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Close()

	if got := p.Failed(); got != 2 {
		t.Errorf("Failed = %d, want 2", got)
	}
	if ran.Load() != 1 {
		t.Error("healthy job did not run")
	}
}

func TestPool_ContextCancellationStopsWorkers(t *testing.T) {
	t.Parallel()

	p := workpool.New(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked after context cancellation")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	if got := workpool.New(0, 0).Workers(); got != 1 {
		t.Errorf("Workers = %d, want 1", got)
	}
}
