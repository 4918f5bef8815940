package debugui_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/chunkecs/ecs"
	"github.com/plus3/chunkecs/ecs/debugui"
)

type Position struct {
	X, Y float32
}

type Health struct {
	Current int
	Max     int
}

type Tagged struct {
	Name   [8]byte
	hidden int
	Inner  struct{ A, B int32 }
}

type browserWorld struct {
	scene    *ecs.Scene
	position ecs.ComponentType
	health   ecs.ComponentType
	movers   *ecs.Archetype
	units    *ecs.Archetype
	moverIds []ecs.EntityId
}

func newBrowserWorld(t *testing.T) *browserWorld {
	t.Helper()
	scene := ecs.NewContext().MustScene(0)
	w := &browserWorld{
		scene:    scene,
		position: ecs.MustTypeOf[Position](scene.Types()),
		health:   ecs.MustTypeOf[Health](scene.Types()),
	}
	w.movers = scene.MustArchetypeOf(w.position)
	w.units = scene.MustArchetypeOf(w.position, w.health)

	w.movers.WillCreate(3)
	for i := range 3 {
		e := w.movers.Create()
		ecs.Set(e, Position{X: float32(i)})
		w.moverIds = append(w.moverIds, e.Id())
	}
	w.units.WillCreate(4)
	for range 4 {
		ecs.Set(w.units.Create(), Health{Current: 10, Max: 10})
	}
	require.NoError(t, scene.Complete(nil))
	return w
}

func TestEntityBrowser(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		w := newBrowserWorld(t)
		eb := debugui.NewEntityBrowser(10)
		eb.Rebuild(w.scene)

		assert.Len(t, eb.FilteredEntities(), 7)

		eb.SetFilter("", w.units.ID())
		assert.Len(t, eb.FilteredEntities(), 4)

		eb.SetFilter("health", -1)
		filtered := eb.FilteredEntities()
		assert.Len(t, filtered, 4)
		for _, info := range filtered {
			assert.Equal(t, w.units.ID(), info.ArchetypeID)
			assert.Equal(t, 2, info.ComponentCount)
		}

		eb.SetFilter("velocity", -1)
		assert.Empty(t, eb.FilteredEntities())

		eb.SetFilter("", -1)
		assert.Len(t, eb.FilteredEntities(), 7)
	})

	t.Run("sorted by identity", func(t *testing.T) {
		w := newBrowserWorld(t)
		eb := debugui.NewEntityBrowser(10)
		eb.Rebuild(w.scene)

		entities := eb.FilteredEntities()
		for i := 1; i < len(entities); i++ {
			assert.Less(t, entities[i-1].ID.Identity(), entities[i].ID.Identity())
		}
		assert.Equal(t, w.movers.ID(), entities[0].ArchetypeID)
	})

	t.Run("pending removals are flagged", func(t *testing.T) {
		w := newBrowserWorld(t)
		w.scene.Remove(w.moverIds[1])

		eb := debugui.NewEntityBrowser(10)
		eb.Rebuild(w.scene)

		var pending []ecs.EntityId
		for _, info := range eb.FilteredEntities() {
			if info.Pending {
				pending = append(pending, info.ID)
			}
		}
		require.Len(t, pending, 1)
		assert.Equal(t, w.moverIds[1].Key(), pending[0].Key())
	})

	t.Run("selection follows compaction", func(t *testing.T) {
		w := newBrowserWorld(t)
		eb := debugui.NewEntityBrowser(10)
		selected := w.moverIds[2]
		eb.Select(selected)

		w.scene.Remove(w.moverIds[0])
		require.NoError(t, w.scene.Complete(nil))
		eb.Rebuild(w.scene)

		got := eb.GetSelectedEntity()
		assert.Equal(t, 0, got.Index())
		assert.Equal(t, selected.Key(), got.Key())

		v, ok := w.scene.Lookup(got)
		require.True(t, ok)
		assert.Equal(t, float32(2), ecs.Get[Position](v).X)
	})

	t.Run("selection of a removed entity is kept", func(t *testing.T) {
		w := newBrowserWorld(t)
		eb := debugui.NewEntityBrowser(10)
		eb.Select(w.moverIds[1])

		w.scene.Remove(w.moverIds[1])
		require.NoError(t, w.scene.Complete(nil))
		eb.Rebuild(w.scene)

		assert.Equal(t, w.moverIds[1], eb.GetSelectedEntity())
		_, ok := w.scene.Lookup(eb.GetSelectedEntity())
		assert.False(t, ok)
	})
}

func TestArchetypeViewer(t *testing.T) {
	w := newBrowserWorld(t)
	av := debugui.NewArchetypeViewer()
	av.Rebuild(w.scene.Stats())

	rows := av.Archetypes()
	require.Len(t, rows, 2)

	assert.Equal(t, w.units.ID(), rows[0].ID)
	assert.Equal(t, 4, rows[0].EntityCount)
	assert.Equal(t, 2, rows[0].ComponentCount)
	assert.Equal(t, w.units.EntitySize(), rows[0].EntitySize)

	assert.Equal(t, w.movers.ID(), rows[1].ID)
	assert.Equal(t, 3, rows[1].EntityCount)
	assert.Equal(t, 1, rows[1].ChunkCount)
	assert.Greater(t, rows[1].Utilization, 0.0)

	w.units.WillCreate(10)
	for range 10 {
		w.units.Create()
	}
	require.NoError(t, w.scene.Complete(nil))
	av.Rebuild(w.scene.Stats())

	rows = av.Archetypes()
	require.Len(t, rows, 2)
	assert.Equal(t, 14, rows[0].EntityCount)
}

func TestQueryDebugger(t *testing.T) {
	w := newBrowserWorld(t)
	_, err := ecs.NewSingleton(w.scene, debugui.ImguiInputState{})
	require.NoError(t, err)

	qd := debugui.NewQueryDebugger()

	matches, err := qd.Match(w.scene)
	require.NoError(t, err)
	assert.Nil(t, matches)

	qd.Toggle(reflect.TypeFor[Position]().String(), true)
	matches, err = qd.Match(w.scene)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	total := 0
	for _, m := range matches {
		total += m.EntityCount
	}
	assert.Equal(t, 7, total)

	qd.Toggle(reflect.TypeFor[Health]().String(), true)
	matches, err = qd.Match(w.scene)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, w.units.ID(), matches[0].ID)
	assert.Equal(t, 4, matches[0].EntityCount)
	assert.Len(t, matches[0].Components, 2)

	qd.Toggle(reflect.TypeFor[Position]().String(), false)
	qd.Toggle(reflect.TypeFor[debugui.ImguiInputState]().String(), true)
	matches, err = qd.Match(w.scene)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, w.units.ID(), matches[0].ID)
}

func TestComponentValue(t *testing.T) {
	w := newBrowserWorld(t)
	v, ok := w.scene.Lookup(w.moverIds[1])
	require.True(t, ok)

	val, ok := debugui.ComponentValue(v, w.position)
	require.True(t, ok)
	require.True(t, val.CanSet())
	val.FieldByName("Y").SetFloat(42)
	assert.Equal(t, Position{X: 1, Y: 42}, *ecs.Get[Position](v))

	_, ok = debugui.ComponentValue(v, w.health)
	assert.False(t, ok)

	_, ok = debugui.ComponentValue(ecs.EntityView{}, w.position)
	assert.False(t, ok)
}

func TestReflectionCache(t *testing.T) {
	registry := ecs.NewTypeRegistry(nil)
	ct := ecs.MustTypeOf[Tagged](registry)
	rc := debugui.NewReflectionCache()

	fields := rc.ComponentFields(registry, ct)
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Name)
	assert.True(t, fields[0].IsArray)
	assert.Equal(t, "Inner", fields[1].Name)
	assert.True(t, fields[1].IsStruct)
	assert.Equal(t, 2, fields[1].Index)

	assert.Equal(t, fields, rc.ComponentFields(registry, ct))

	nested := rc.GetFields(fields[1].Type)
	require.Len(t, nested, 2)
	assert.Equal(t, uintptr(4), nested[1].Offset)

	assert.Empty(t, rc.GetFields(reflect.TypeFor[int]()))

	rc.Reset()
	assert.Equal(t, fields, rc.ComponentFields(registry, ct))
}

func TestItems(t *testing.T) {
	scene := ecs.NewContext().MustScene(0)
	require.NoError(t, debugui.RegisterDebugUIComponents(scene.Types()))

	rendered := 0
	v, err := debugui.AddItem(scene, func() { rendered++ })
	require.NoError(t, err)
	require.NoError(t, scene.Complete(nil))
	assert.Equal(t, 1, scene.Refs().Len())

	item, ok := scene.Lookup(v.Id())
	require.True(t, ok)
	render, ok := ecs.Get[debugui.ImguiItem](item).Render.Resolve(scene.Refs())
	require.True(t, ok)
	render()
	assert.Equal(t, 1, rendered)

	assert.True(t, debugui.RemoveItem(scene, v.Id()))
	assert.Equal(t, 0, scene.Refs().Len())
	require.NoError(t, scene.Complete(nil))

	assert.False(t, debugui.RemoveItem(scene, v.Id()))
	items, err := ecs.TypeOf[debugui.ImguiItem](scene.Types())
	require.NoError(t, err)
	assert.Equal(t, 0, scene.MustArchetypeOf(items).Count())
}

func TestPerformanceStats(t *testing.T) {
	ps := debugui.NewPerformanceStats(4)
	assert.Zero(t, ps.AverageFrameTime())

	ps.Record(0.002)
	ps.Record(0.004)
	assert.InDelta(t, 1.5, ps.AverageFrameTime(), 1e-4)

	for range 4 {
		ps.Record(0.010)
	}
	assert.InDelta(t, 10.0, ps.AverageFrameTime(), 1e-4)
}
