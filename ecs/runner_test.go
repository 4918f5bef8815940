package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/chunkecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Entities ecs.View[struct {
		*Position
		*Velocity
	}]
	Clock ecs.Singleton[GameClock]

	query        *ecs.Query
	StartCount   int
	ExecuteCount int
}

func (s *MovementSystem) Start(frame *ecs.UpdateFrame) {
	s.StartCount++
	q, err := s.Entities.Query()
	if err != nil {
		panic(err)
	}
	s.query = q
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	s.Clock.Get().Ticks++
	dt := float32(frame.DeltaTime)
	frame.After(s.query.ForEach(frame.Scheduler, ecs.Parallel, frame.Dependency, func(r *ecs.QueryResult) {
		p := ecs.Component[Position](r, 0)
		v := ecs.Component[Velocity](r, 1)
		p.X += v.DX * dt
		p.Y += v.DY * dt
	}))
}

type SpawnerSystem struct {
	Archetype *ecs.Archetype
	PerFrame  int
}

func (s *SpawnerSystem) Execute(frame *ecs.UpdateFrame) {
	for range s.PerFrame {
		frame.Commands.Create(s.Archetype, func(e ecs.EntityView) {
			ecs.Set(e, Velocity{DX: 1})
		})
	}
}

type PanickingSystem struct{}

func (PanickingSystem) Execute(*ecs.UpdateFrame) {
	panic("broken system")
}

type BrokenViewSystem struct {
	Entities ecs.View[struct{ X int }]
}

func (BrokenViewSystem) Execute(*ecs.UpdateFrame) {}

func TestRunner(t *testing.T) {
	t.Run("systems run in order with bound fields", func(t *testing.T) {
		scene := newTestScene(t)
		a := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Velocity](scene))
		runner := ecs.NewRunner(scene, nil)

		movement := &MovementSystem{}
		spawner := &SpawnerSystem{Archetype: a, PerFrame: 2}
		runner.MustRegister(spawner, movement)
		assert.Same(t, scene, runner.Scene())

		require.NoError(t, runner.Once(0.5))
		assert.Equal(t, 2, a.Count())
		for e := range a.Entities() {
			assert.Equal(t, float32(0), ecs.Get[Position](e).X)
		}

		require.NoError(t, runner.Once(0.5))
		require.NoError(t, runner.Once(0.5))
		assert.Equal(t, 6, a.Count())
		assert.Equal(t, 1, movement.StartCount)
		assert.Equal(t, 3, movement.ExecuteCount)
		assert.Equal(t, uint32(3), movement.Clock.Get().Ticks)

		// Entities spawned in frame one moved in frames two and three.
		assert.Equal(t, float32(1), ecs.Get[Position](a.Get(0)).X)
		assert.Equal(t, float32(0.5), ecs.Get[Position](a.Get(2)).X)
		assert.Equal(t, float32(0), ecs.Get[Position](a.Get(4)).X)
	})

	t.Run("a panicking system does not stop the frame", func(t *testing.T) {
		scene := newTestScene(t)
		a := scene.MustArchetypeOf(typeOf[Velocity](scene))
		runner := ecs.NewRunner(scene, ecs.InlineScheduler{})
		runner.MustRegister(PanickingSystem{}, &SpawnerSystem{Archetype: a, PerFrame: 1})

		require.NoError(t, runner.Once(0.1))
		require.NoError(t, runner.Once(0.1))
		assert.Equal(t, 2, a.Count())

		stats := runner.GetStats()
		require.Len(t, stats.Systems, 2)
		assert.Equal(t, "PanickingSystem", stats.Systems[0].Name)
		assert.Equal(t, int64(2), stats.Systems[0].PanicCount)
		assert.Equal(t, int64(0), stats.Systems[1].PanicCount)
	})

	t.Run("field binding errors fail registration", func(t *testing.T) {
		scene := newTestScene(t)
		runner := ecs.NewRunner(scene, nil)

		err := runner.Register(&BrokenViewSystem{})
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)
		assert.ErrorContains(t, err, "BrokenViewSystem.Entities")
		assert.Equal(t, 0, runner.GetStats().SystemCount)
	})

	t.Run("stats", func(t *testing.T) {
		scene := newTestScene(t)
		runner := ecs.NewRunner(scene, nil)
		runner.MustRegister(&MovementSystem{}, &SpawnerSystem{Archetype: scene.MustArchetypeOf(typeOf[Velocity](scene))})

		for range 5 {
			require.NoError(t, runner.Once(0.016))
		}

		stats := runner.GetStats()
		assert.Equal(t, 2, stats.SystemCount)
		assert.Equal(t, uint64(5), stats.Frames)
		assert.Equal(t, int64(10), stats.TotalExecutions)
		for _, s := range stats.Systems {
			assert.Equal(t, int64(5), s.ExecutionCount)
			assert.LessOrEqual(t, s.MinDuration, s.AvgDuration)
			assert.LessOrEqual(t, s.AvgDuration, s.MaxDuration)
			assert.GreaterOrEqual(t, s.TotalDuration, s.MaxDuration)
		}
		assert.Equal(t, "MovementSystem", stats.Systems[0].Name)
		assert.Equal(t, "SpawnerSystem", stats.Systems[1].Name)
	})

	t.Run("run stops with the context", func(t *testing.T) {
		scene := newTestScene(t)
		runner := ecs.NewRunner(scene, nil)
		movement := &MovementSystem{}
		runner.MustRegister(movement)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		require.NoError(t, runner.Run(ctx, time.Millisecond))
		assert.Positive(t, movement.ExecuteCount)
	})

	t.Run("runner commands are flushed", func(t *testing.T) {
		scene := newTestScene(t)
		a := scene.MustArchetypeOf(typeOf[Score](scene))
		runner := ecs.NewRunner(scene, nil)

		runner.Commands().Create(a, nil)
		require.NoError(t, runner.Once(0))
		assert.Equal(t, 1, a.Count())
		assert.Equal(t, 0, runner.Commands().Len())
	})
}
