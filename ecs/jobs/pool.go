// Package jobs provides a goroutine backed ecs.Scheduler.
package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/plus3/chunkecs/ecs"
)

// PanicError is returned by Handle.Wait when a work item panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("jobs: work item panicked: %v", e.Value)
}

// Stats counts pool traffic.
type Stats struct {
	Scheduled int64
	Completed int64
	Failed    int64
	Batches   int64
}

// Pool runs work items on goroutines. Parallel work items are spread over
// at most Workers goroutines that claim batches from a shared cursor.
//
// Work items must not wait on handles of the same pool.
type Pool struct {
	workers int
	logger  *slog.Logger

	scheduled atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	batches   atomic.Int64
}

// Option customizes a Pool.
type Option func(*Pool)

// WithWorkers sets the parallelism of ScheduleParallel. Values below one
// select runtime.GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithLogger sets the logger for failed work items.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a pool.
func NewPool(opts ...Option) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Workers returns the parallelism of ScheduleParallel.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Scheduled: p.scheduled.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Batches:   p.batches.Load(),
	}
}

type task struct {
	done chan struct{}
	err  error
}

func (t *task) Wait() error {
	<-t.done
	return t.err
}

func (p *Pool) spawn(dependsOn ecs.Handle, run func() error) ecs.Handle {
	p.scheduled.Add(1)
	t := &task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer p.completed.Add(1)
		if err := ecs.Wait(dependsOn); err != nil {
			t.err = err
			return
		}
		if t.err = run(); t.err != nil {
			p.failed.Add(1)
			p.logger.Error("work item failed", "error", t.err)
		}
	}()
	return t
}

// Schedule runs fn on its own goroutine once dependsOn completes. If
// dependsOn failed, fn is skipped and the failure is passed on.
func (p *Pool) Schedule(dependsOn ecs.Handle, fn func()) ecs.Handle {
	return p.spawn(dependsOn, func() error {
		return protect(fn)
	})
}

// ScheduleParallel runs fn over [0, n) in batches of at most batch items.
func (p *Pool) ScheduleParallel(dependsOn ecs.Handle, n, batch int, fn func(start, end int)) ecs.Handle {
	if batch < 1 {
		batch = max(n, 1)
	}
	batches := (n + batch - 1) / batch
	return p.spawn(dependsOn, func() error {
		var cursor atomic.Int64
		var g errgroup.Group
		g.SetLimit(p.workers)
		for range min(p.workers, batches) {
			g.Go(func() error {
				for {
					b := int(cursor.Add(1) - 1)
					if b >= batches {
						return nil
					}
					start := b * batch
					end := min(start+batch, n)
					p.batches.Add(1)
					if err := protect(func() { fn(start, end) }); err != nil {
						return err
					}
				}
			})
		}
		return g.Wait()
	})
}

// Combine returns a handle that completes once every handle has completed.
// Its error joins the errors of all handles.
func (p *Pool) Combine(handles ...ecs.Handle) ecs.Handle {
	t := &task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		var errs []error
		for _, h := range handles {
			if err := ecs.Wait(h); err != nil {
				errs = append(errs, err)
			}
		}
		t.err = errors.Join(errs...)
	}()
	return t
}

func protect(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

var _ ecs.Scheduler = (*Pool)(nil)
