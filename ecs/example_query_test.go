package ecs_test

import (
	"fmt"

	"github.com/plus3/chunkecs/ecs"
)

// ExampleQuery demonstrates superset matching. A query for Position and
// Velocity visits every archetype holding both, whatever else it holds.
func ExampleQuery() {
	ctx := ecs.NewContext()
	scene := ctx.MustScene(0)
	position := ecs.MustTypeOf[Position](ctx.Types())
	velocity := ecs.MustTypeOf[Velocity](ctx.Types())
	health := ecs.MustTypeOf[Health](ctx.Types())

	for _, a := range []*ecs.Archetype{
		scene.MustArchetypeOf(position),
		scene.MustArchetypeOf(position, velocity),
		scene.MustArchetypeOf(position, velocity, health),
	} {
		a.WillCreate(2)
		for range 2 {
			e := a.Create()
			if a.Has(velocity) {
				ecs.Set(e, Velocity{DX: 1, DY: 2})
			}
		}
	}
	if err := scene.Complete(nil); err != nil {
		panic(err)
	}

	query := scene.MustQuery(position, velocity)
	fmt.Println("matching entities:", query.Count())

	done := query.ForEach(ecs.InlineScheduler{}, ecs.Parallel, nil, func(r *ecs.QueryResult) {
		p := ecs.Component[Position](r, 0)
		v := ecs.Component[Velocity](r, 1)
		p.X += v.DX
		p.Y += v.DY
	})
	if err := done.Wait(); err != nil {
		panic(err)
	}

	for r := range query.Each() {
		p := ecs.Component[Position](r, 0)
		fmt.Printf("archetype %d: (%.0f, %.0f)\n", r.Archetype().ID(), p.X, p.Y)
	}

	// Output:
	// matching entities: 4
	// archetype 2: (1, 2)
	// archetype 2: (1, 2)
	// archetype 3: (1, 2)
	// archetype 3: (1, 2)
}
