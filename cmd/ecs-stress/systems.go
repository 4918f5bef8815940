package main

import (
	"math/rand/v2"

	"github.com/plus3/chunkecs/ecs"
)

type Position struct {
	X, Y, Z float32
}

type Velocity struct {
	X, Y, Z float32
}

type Health struct {
	Value, Max float32
}

type Regen struct {
	Rate float32
}

type Lifetime struct {
	Remaining float32
	Age       uint32
}

type WorldClock struct {
	ecs.SingletonTag
	Elapsed float64
	Frames  uint64
	Spawned uint64
	Expired uint64
}

// Archetypes lists the component sets entities are spawned into.
type Archetypes struct {
	sets [][]ecs.ComponentType
}

func newArchetypes(types *ecs.TypeRegistry) Archetypes {
	pos := ecs.MustTypeOf[Position](types)
	vel := ecs.MustTypeOf[Velocity](types)
	hp := ecs.MustTypeOf[Health](types)
	regen := ecs.MustTypeOf[Regen](types)
	life := ecs.MustTypeOf[Lifetime](types)
	return Archetypes{sets: [][]ecs.ComponentType{
		{pos, life},
		{pos, vel, life},
		{pos, vel, hp, life},
		{pos, vel, hp, regen, life},
		{hp, regen, life},
	}}
}

func (a Archetypes) random(scene *ecs.Scene, rng *rand.Rand) *ecs.Archetype {
	return scene.MustArchetypeOf(a.sets[rng.IntN(len(a.sets))]...)
}

func initEntity(rng *rand.Rand) func(ecs.EntityView) {
	return func(v ecs.EntityView) {
		types := v.Archetype().Scene().Types()
		*ecs.GetAs[Lifetime](v, ecs.MustTypeOf[Lifetime](types)) = Lifetime{Remaining: 1 + rng.Float32()*4}
		if ct := ecs.MustTypeOf[Position](types); v.Has(ct) {
			*ecs.GetAs[Position](v, ct) = Position{X: rng.Float32() * 100, Y: rng.Float32() * 100}
		}
		if ct := ecs.MustTypeOf[Velocity](types); v.Has(ct) {
			*ecs.GetAs[Velocity](v, ct) = Velocity{X: rng.Float32() - 0.5, Y: rng.Float32() - 0.5, Z: 1}
		}
		if ct := ecs.MustTypeOf[Health](types); v.Has(ct) {
			*ecs.GetAs[Health](v, ct) = Health{Value: 50, Max: 100}
		}
		if ct := ecs.MustTypeOf[Regen](types); v.Has(ct) {
			*ecs.GetAs[Regen](v, ct) = Regen{Rate: 5}
		}
	}
}

// ClockSystem advances the world clock singleton.
type ClockSystem struct {
	Clock ecs.Singleton[WorldClock]
}

func (s *ClockSystem) Execute(frame *ecs.UpdateFrame) {
	clock := s.Clock.Get()
	clock.Elapsed += frame.DeltaTime
	clock.Frames++
}

// MovementSystem integrates velocities into positions.
type MovementSystem struct {
	Mode  ecs.ScheduleMode
	query *ecs.Query
}

func (s *MovementSystem) Start(frame *ecs.UpdateFrame) {
	types := frame.Scene.Types()
	s.query = frame.Scene.MustQuery(ecs.MustTypeOf[Position](types), ecs.MustTypeOf[Velocity](types))
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	frame.After(s.query.ForEach(frame.Scheduler, s.Mode, frame.Dependency, func(r *ecs.QueryResult) {
		pos := ecs.Component[Position](r, 0)
		vel := ecs.Component[Velocity](r, 1)
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt
	}))
}

// HealthView selects entities with health and, when present, regeneration.
type HealthView struct {
	*Health
	Regen *Regen `ecs:"optional"`
}

// HealthSystem regenerates health through a struct view.
type HealthSystem struct {
	Entities ecs.View[HealthView]
}

func (s *HealthSystem) Execute(frame *ecs.UpdateFrame) {
	if err := ecs.Wait(frame.Dependency); err != nil {
		return
	}
	dt := float32(frame.DeltaTime)
	for e := range s.Entities.Values() {
		if e.Regen != nil {
			e.Health.Value = min(e.Health.Max, e.Health.Value+e.Regen.Rate*dt)
		}
	}
}

// LifetimeSystem ages entities and removes expired ones.
type LifetimeSystem struct {
	Mode  ecs.ScheduleMode
	Clock ecs.Singleton[WorldClock]
	query *ecs.Query
}

func (s *LifetimeSystem) Start(frame *ecs.UpdateFrame) {
	s.query = frame.Scene.MustQuery(ecs.MustTypeOf[Lifetime](frame.Scene.Types()))
}

func (s *LifetimeSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	clock := s.Clock.Get()
	frame.After(s.query.ForEach(frame.Scheduler, s.Mode, frame.Dependency, func(r *ecs.QueryResult) {
		life := ecs.Component[Lifetime](r, 0)
		life.Age++
		life.Remaining -= dt
		if life.Remaining <= 0 && !r.IsInvalid() {
			frame.Commands.Remove(r.Entity())
			frame.Commands.Defer(func() { clock.Expired++ })
		}
	}))
}

// SpawnSystem replaces expired entities at a fixed rate.
type SpawnSystem struct {
	Churn      int
	Clock      ecs.Singleton[WorldClock]
	archetypes Archetypes
	rng        *rand.Rand
}

func (s *SpawnSystem) Start(frame *ecs.UpdateFrame) {
	s.archetypes = newArchetypes(frame.Scene.Types())
	s.rng = rand.New(rand.NewPCG(uint64(frame.Scene.Index()), 1))
}

func (s *SpawnSystem) Execute(frame *ecs.UpdateFrame) {
	for range s.Churn {
		frame.Commands.Create(s.archetypes.random(frame.Scene, s.rng), initEntity(s.rng))
	}
	s.Clock.Get().Spawned += uint64(s.Churn)
}
