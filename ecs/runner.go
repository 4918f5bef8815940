package ecs

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// RunnerStats provides statistics about runner execution.
type RunnerStats struct {
	SystemCount     int
	Frames          uint64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	PanicCount     int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	panicCount     int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Runner drives the frame loop of one scene: it executes registered systems
// in order, flushes their commands and runs the completion barrier.
type Runner struct {
	scene       *Scene
	sched       Scheduler
	logger      *slog.Logger
	systems     []System
	started     []bool
	systemStats []*systemStatsInternal
	commands    *Commands
	frame       uint64
}

// NewRunner creates a runner for scene. A nil sched runs every query inline.
func NewRunner(scene *Scene, sched Scheduler) *Runner {
	if sched == nil {
		sched = InlineScheduler{}
	}
	return &Runner{
		scene:    scene,
		sched:    sched,
		logger:   scene.logger,
		commands: NewCommands(),
	}
}

// Scene returns the driven scene.
func (r *Runner) Scene() *Scene {
	return r.scene
}

// Commands returns the command buffer flushed at the end of every frame.
func (r *Runner) Commands() *Commands {
	return r.commands
}

// Register adds a system to the runner and binds its Initializer fields.
func (r *Runner) Register(system System) error {
	if err := r.initializeFields(system); err != nil {
		return err
	}
	r.systems = append(r.systems, system)
	r.started = append(r.started, false)

	name := systemName(system)
	r.systemStats = append(r.systemStats, &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	})
	r.logger.Debug("system registered", "system", name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Runner) MustRegister(systems ...System) {
	for _, s := range systems {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

var initializerType = reflect.TypeFor[Initializer]()

func (r *Runner) initializeFields(system System) error {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Pointer {
		systemValue = systemValue.Elem()
	}
	if systemValue.Kind() != reflect.Struct {
		return nil
	}

	systemType := systemValue.Type()
	for i := range systemValue.NumField() {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if !field.Addr().Type().Implements(initializerType) {
			continue
		}
		init := field.Addr().Interface().(Initializer)
		if err := init.Init(r.scene); err != nil {
			return fmt.Errorf("init %s.%s: %w", systemType.Name(), systemType.Field(i).Name, err)
		}
	}
	return nil
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Pointer {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// Once executes every registered system once with the given delta time,
// then waits for the work they scheduled, flushes their commands and runs
// the completion barrier. A panicking system is logged and skipped; the
// frame still completes.
func (r *Runner) Once(dt float64) error {
	r.frame++
	frame := newUpdateFrame(dt, r.frame, r.scene, r.sched, r.commands)

	for i, system := range r.systems {
		stats := r.systemStats[i]
		start := time.Now()
		if !r.execute(i, system, frame) {
			stats.panicCount++
		}
		duration := time.Since(start)

		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration
		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}

	if err := Wait(frame.Dependency); err != nil {
		r.logger.Error("frame work failed", "frame", r.frame, "error", err)
	}
	if err := r.commands.Flush(r.scene); err != nil {
		r.logger.Warn("commands skipped", "frame", r.frame, "error", err)
	}
	return r.scene.Complete(r.sched)
}

func (r *Runner) execute(i int, system System, frame *UpdateFrame) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("system panicked", "system", r.systemStats[i].name, "frame", frame.Frame, "panic", p)
			ok = false
		}
	}()

	if !r.started[i] {
		r.started[i] = true
		if s, isStarter := system.(Starter); isStarter {
			s.Start(frame)
		}
	}
	system.Execute(frame)
	return true
}

// Run executes all systems repeatedly at the given interval until ctx is
// cancelled or a frame fails.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := r.Once(dt); err != nil {
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution.
func (r *Runner) GetStats() *RunnerStats {
	stats := &RunnerStats{
		SystemCount: len(r.systems),
		Frames:      r.frame,
		Systems:     make([]SystemStats, len(r.systemStats)),
	}

	var totalExecs int64
	for i, internal := range r.systemStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			PanicCount:     internal.panicCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
