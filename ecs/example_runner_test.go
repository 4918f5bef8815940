package ecs_test

import (
	"fmt"

	"github.com/plus3/chunkecs/ecs"
)

type Lifetime struct {
	Frames int
}

// ExpirySystem removes entities whose lifetime ran out.
type ExpirySystem struct {
	Entities ecs.View[struct{ *Lifetime }]
	Clock    ecs.Singleton[GameClock]
}

func (s *ExpirySystem) Execute(frame *ecs.UpdateFrame) {
	s.Clock.Get().Ticks++
	for id, item := range s.Entities.Iter() {
		item.Lifetime.Frames--
		if item.Lifetime.Frames <= 0 {
			frame.Commands.Remove(id)
		}
	}
}

// ExampleRunner drives systems frame by frame. Structural changes recorded
// through frame.Commands are applied before the completion barrier.
func ExampleRunner() {
	scene := ecs.NewContext().MustScene(0)
	lifetimes := scene.MustArchetypeOf(ecs.MustTypeOf[Lifetime](scene.Types()))

	lifetimes.WillCreate(3)
	for i := range 3 {
		ecs.Set(lifetimes.Create(), Lifetime{Frames: i + 1})
	}

	runner := ecs.NewRunner(scene, nil)
	expiry := &ExpirySystem{}
	runner.MustRegister(expiry)

	if err := scene.Complete(nil); err != nil {
		panic(err)
	}
	for lifetimes.Count() > 0 {
		if err := runner.Once(1.0 / 60); err != nil {
			panic(err)
		}
		fmt.Printf("frame %d: %d alive\n", expiry.Clock.Get().Ticks, lifetimes.Count())
	}

	// Output:
	// frame 1: 2 alive
	// frame 2: 1 alive
	// frame 3: 0 alive
}

// ExampleCommands records changes from inside a parallel query and applies
// them in one flush.
func ExampleCommands() {
	scene := ecs.NewContext().MustScene(0)
	health := ecs.MustTypeOf[Health](scene.Types())
	units := scene.MustArchetypeOf(health)

	units.WillCreate(4)
	for i := range 4 {
		ecs.Set(units.Create(), Health{Current: i, Max: 3})
	}
	if err := scene.Complete(nil); err != nil {
		panic(err)
	}

	cmds := ecs.NewCommands()
	query := scene.MustQuery(health)
	done := query.ForEach(ecs.InlineScheduler{}, ecs.Parallel, nil, func(r *ecs.QueryResult) {
		if ecs.Component[Health](r, 0).Current == 0 {
			cmds.Remove(r.Entity())
		}
	})
	if err := done.Wait(); err != nil {
		panic(err)
	}
	cmds.Defer(func() {
		fmt.Println("queued commands applied")
	})

	if err := cmds.Flush(scene); err != nil {
		panic(err)
	}
	if err := scene.Complete(nil); err != nil {
		panic(err)
	}
	fmt.Println("units left:", units.Count())

	// Output:
	// queued commands applied
	// units left: 3
}
