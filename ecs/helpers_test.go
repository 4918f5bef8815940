package ecs_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/plus3/chunkecs/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y, Z float32
}

type Rotation struct {
	X, Y, Z, W float32
}

type Scale struct {
	X, Y, Z float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current int
	Max     int
}

type Score int32

type GameClock struct {
	ecs.SingletonTag
	Ticks uint32
}

type Gravity struct {
	ecs.SingletonTag
	Value float32
}

type Terrain struct {
	ecs.SingletonTag
	Heights [4094]float32
}

func newTestScene(t testing.TB) *ecs.Scene {
	t.Helper()
	scene, err := ecs.NewContext().Scene(0)
	require.NoError(t, err)
	return scene
}

func typeOf[T any](scene *ecs.Scene) ecs.ComponentType {
	return ecs.MustTypeOf[T](scene.Types())
}

// spawn reserves and creates n entities in a, calling fill for each.
func spawn(a *ecs.Archetype, n int, fill func(i int, e ecs.EntityView)) []ecs.EntityId {
	a.WillCreate(n)
	ids := make([]ecs.EntityId, n)
	for i := range n {
		e := a.Create()
		if fill != nil {
			fill(i, e)
		}
		ids[i] = e.Id()
	}
	return ids
}

func complete(t testing.TB, scene *ecs.Scene) {
	t.Helper()
	require.NoError(t, scene.Complete(nil))
}

// byteArrayTypes returns n distinct plain data types.
func byteArrayTypes(n int) []reflect.Type {
	types := make([]reflect.Type, n)
	for i := range types {
		types[i] = reflect.ArrayOf(i+1, reflect.TypeFor[byte]())
	}
	return types
}

// requirePanicKind runs fn and requires it to panic with an *ecs.Error of
// the given kind.
func requirePanicKind(t *testing.T, kind error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		p := recover()
		require.NotNil(t, p, "expected a panic wrapping %v", kind)
		err, ok := p.(error)
		require.True(t, ok, "panic value %v is not an error", p)
		var ecsErr *ecs.Error
		require.True(t, errors.As(err, &ecsErr), "panic %v is not an *ecs.Error", err)
		require.ErrorIs(t, err, kind)
	}()
	fn()
}
