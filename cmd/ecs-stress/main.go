package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/plus3/chunkecs/ecs"
	"github.com/plus3/chunkecs/ecs/jobs"
	"github.com/plus3/chunkecs/internal/config"
)

func main() {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exit("ecs-stress", err)
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		config.Exit("ecs-stress", err)
	}

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	if err := Run(context.Background(), cfg, logger, os.Stdout); err != nil {
		logger.Error("stress test failed", "error", err)
		os.Exit(1)
	}
}

// Run populates the scenes, drives the frame loop for cfg.Duration and
// writes the report to out.
func Run(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer) error {
	mode, err := cfg.ScheduleMode()
	if err != nil {
		return err
	}
	runID := uuid.New()
	logger = logger.With("run", runID.String())
	logger.Info("starting ECS stress test", "mode", mode, "scenes", cfg.Scenes, "entities", cfg.Entities)

	ctxCfg := cfg.Context
	ctxCfg.Logger = logger
	world := ecs.NewContext(ecs.WithConfig(ctxCfg))
	pool := jobs.NewPool(jobs.WithWorkers(cfg.Workers), jobs.WithLogger(logger))

	runners := make([]*ecs.Runner, cfg.Scenes)
	for i := range runners {
		scene, err := world.Scene(i)
		if err != nil {
			return err
		}
		runner := ecs.NewRunner(scene, pool)
		err = registerSystems(runner, mode, cfg.Churn)
		if err != nil {
			return err
		}
		populate(scene, cfg.Entities)
		if err := scene.Complete(pool); err != nil {
			return err
		}
		runners[i] = runner
	}
	logger.Info("population complete")

	report := &Report{
		RunID:          runID.String(),
		Mode:           mode.String(),
		Workers:        pool.Workers(),
		Duration:       cfg.Duration,
		Entities:       cfg.Entities,
		Scenes:         cfg.Scenes,
		Churn:          cfg.Churn,
		GCPauseMetrics: cfg.GCPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", "duration", cfg.Duration)
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		for _, runner := range runners {
			if err := runner.Once(deltaTime.Seconds()); err != nil {
				return err
			}
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		report.TotalUpdates++
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	for i, runner := range runners {
		report.ScenesStats = append(report.ScenesStats, runner.Scene().Stats())
		if i == 0 {
			report.Systems = runner.GetStats().Systems
		}
	}
	report.Jobs = pool.Stats()
	report.Pool = world.Chunks().Stats()
	logger.Info("simulation finished", "updates", report.TotalUpdates)

	fmt.Fprintln(out, "\n\n--- Stress Test Report ---")
	if err := report.Generate(out); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Fprintln(out, "--- End of Report ---")
	return nil
}

func registerSystems(runner *ecs.Runner, mode ecs.ScheduleMode, churn int) error {
	systems := []ecs.System{
		&ClockSystem{},
		&MovementSystem{Mode: mode},
		&HealthSystem{},
		&LifetimeSystem{Mode: mode},
		&SpawnSystem{Churn: churn},
	}
	for _, s := range systems {
		if err := runner.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// populate creates n entities spread over the stress archetypes, reserving
// every archetype once before filling it.
func populate(scene *ecs.Scene, n int) {
	rng := rand.New(rand.NewPCG(uint64(scene.Index()), 0))
	archetypes := newArchetypes(scene.Types())

	picks := make([]*ecs.Archetype, n)
	counts := make(map[*ecs.Archetype]int)
	for i := range picks {
		picks[i] = archetypes.random(scene, rng)
		counts[picks[i]]++
	}
	for a, c := range counts {
		a.WillCreate(c)
	}
	fill := initEntity(rng)
	for _, a := range picks {
		fill(a.Create())
	}
}
