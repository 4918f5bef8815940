package ecs_test

import (
	"fmt"

	"github.com/plus3/chunkecs/ecs"
)

// ExampleArchetype shows the two-phase mutation window. Creations and
// removals are staged and only become visible when the scene completes.
func ExampleArchetype() {
	ctx := ecs.NewContext()
	scene := ctx.MustScene(0)

	position := ecs.MustTypeOf[Position](ctx.Types())
	velocity := ecs.MustTypeOf[Velocity](ctx.Types())
	movers := scene.MustArchetypeOf(position, velocity)

	movers.WillCreate(3)
	var ids []ecs.EntityId
	for i := range 3 {
		e := movers.Create()
		ecs.Set(e, Position{X: float32(i * 10)})
		ecs.Set(e, Velocity{DX: 1})
		ids = append(ids, e.Id())
	}
	fmt.Println("before completion:", movers.Count())

	if err := scene.Complete(nil); err != nil {
		panic(err)
	}
	fmt.Println("after completion:", movers.Count())

	scene.Remove(ids[0])
	if err := scene.Complete(nil); err != nil {
		panic(err)
	}
	for e := range movers.Entities() {
		fmt.Printf("slot %d: x=%.0f\n", e.Index(), ecs.Get[Position](e).X)
	}

	// Output:
	// before completion: 0
	// after completion: 3
	// slot 0: x=20
	// slot 1: x=10
}
