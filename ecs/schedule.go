package ecs

import "errors"

// ScheduleMode selects how the query engine hands work to a Scheduler.
type ScheduleMode uint8

const (
	// Run executes on the calling goroutine with no scheduling overhead.
	Run ScheduleMode = iota
	// Single schedules each archetype's whole range as one unit, chained
	// one after another.
	Single
	// Parallel schedules one unit per chunk and combines the handles.
	Parallel
)

func (m ScheduleMode) String() string {
	switch m {
	case Run:
		return "run"
	case Single:
		return "single"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Handle tracks scheduled work. Wait blocks until the work and everything
// it depends on has finished, and reports a failure raised by it.
type Handle interface {
	Wait() error
}

// Scheduler executes the work items produced by queries and completion
// passes. A nil dependsOn means the work may start at once.
type Scheduler interface {
	// Schedule runs fn once after dependsOn completes.
	Schedule(dependsOn Handle, fn func()) Handle
	// ScheduleParallel splits [0, n) into batches of at most batch items
	// and runs fn over each, possibly concurrently, after dependsOn
	// completes.
	ScheduleParallel(dependsOn Handle, n, batch int, fn func(start, end int)) Handle
	// Combine returns a handle that completes when all handles complete.
	Combine(handles ...Handle) Handle
}

// Wait waits for h, treating nil as already complete.
func Wait(h Handle) error {
	if h == nil {
		return nil
	}
	return h.Wait()
}

type doneHandle struct {
	err error
}

func (h doneHandle) Wait() error {
	return h.err
}

type combinedHandle []Handle

func (hs combinedHandle) Wait() error {
	var errs []error
	for _, h := range hs {
		if err := Wait(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InlineScheduler runs every work item on the calling goroutine. It is the
// scheduler of choice for tests and single-threaded tools.
type InlineScheduler struct{}

func (InlineScheduler) Schedule(dependsOn Handle, fn func()) Handle {
	if err := Wait(dependsOn); err != nil {
		return doneHandle{err: err}
	}
	fn()
	return doneHandle{}
}

func (InlineScheduler) ScheduleParallel(dependsOn Handle, n, batch int, fn func(start, end int)) Handle {
	if err := Wait(dependsOn); err != nil {
		return doneHandle{err: err}
	}
	if batch < 1 {
		batch = n
	}
	for start := 0; start < n; start += batch {
		fn(start, min(start+batch, n))
	}
	return doneHandle{}
}

func (InlineScheduler) Combine(handles ...Handle) Handle {
	return combinedHandle(handles)
}
