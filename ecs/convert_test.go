package ecs_test

import (
	"testing"

	"github.com/plus3/chunkecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit is a foreign game object that is not itself a component.
type Unit struct {
	Name    string
	X, Y    float32
	HP      int
	Loadout []string
}

type Marker struct {
	Label string
}

func newUnitConverters(t *testing.T, scene *ecs.Scene) *ecs.Converters {
	t.Helper()
	conv := ecs.NewConverters(scene.Types())
	require.NoError(t, ecs.RegisterConverter(conv, func(u *Unit, p *Position) {
		p.X, p.Y = u.X, u.Y
	}))
	require.NoError(t, ecs.RegisterConverter(conv, func(u *Unit, h *Health) {
		h.Current, h.Max = u.HP, u.HP
	}))
	require.NoError(t, ecs.RegisterConverter(conv, func(m Marker, s *Score) {
		*s = Score(len(m.Label))
	}))
	return conv
}

func TestConverters(t *testing.T) {
	t.Run("convert builds the union archetype", func(t *testing.T) {
		scene := newTestScene(t)
		conv := newUnitConverters(t, scene)

		unit := &Unit{Name: "scout", X: 3, Y: 4, HP: 12, Loadout: []string{"bow"}}
		e, err := conv.Convert(scene, unit, Marker{Label: "blue"})
		require.NoError(t, err)

		set, err := conv.Set(unit, Marker{})
		require.NoError(t, err)
		assert.True(t, e.Archetype().Set().Equal(set))
		assert.Equal(t, 3, set.Len())

		complete(t, scene)
		got, ok := scene.Lookup(e.Id())
		require.True(t, ok)
		assert.Equal(t, Position{X: 3, Y: 4}, *ecs.Get[Position](got))
		assert.Equal(t, Health{Current: 12, Max: 12}, *ecs.Get[Health](got))
		assert.Equal(t, Score(4), *ecs.Get[Score](got))
	})

	t.Run("stage writes into an existing record", func(t *testing.T) {
		scene := newTestScene(t)
		conv := newUnitConverters(t, scene)
		a := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Health](scene), typeOf[Velocity](scene))

		spawn(a, 1, func(_ int, e ecs.EntityView) {
			require.NoError(t, conv.Stage(e, &Unit{X: 1, HP: 2}))
			ecs.Set(e, Velocity{DX: 9})
		})
		complete(t, scene)

		e := a.Get(0)
		assert.Equal(t, float32(1), ecs.Get[Position](e).X)
		assert.Equal(t, 2, ecs.Get[Health](e).Max)
		assert.Equal(t, float32(9), ecs.Get[Velocity](e).DX)
	})

	t.Run("stage rejects records missing a target", func(t *testing.T) {
		scene := newTestScene(t)
		conv := newUnitConverters(t, scene)
		a := scene.MustArchetypeOf(typeOf[Position](scene))

		a.WillCreate(1)
		err := conv.Stage(a.Create(), &Unit{})
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)
	})

	t.Run("unknown sources are rejected", func(t *testing.T) {
		scene := newTestScene(t)
		conv := newUnitConverters(t, scene)

		_, err := conv.Convert(scene, &Unit{}, "not convertible")
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)
		_, err = conv.Convert(scene, Unit{})
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)
		assert.Equal(t, 0, scene.ArchetypeCount())

		set, err := conv.Set("ignored")
		require.NoError(t, err)
		assert.True(t, set.IsEmpty())
	})

	t.Run("registration errors", func(t *testing.T) {
		scene := newTestScene(t)
		conv := newUnitConverters(t, scene)

		err := ecs.RegisterConverter(conv, func(u *Unit, p *Position) {})
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)

		err = ecs.RegisterConverter(conv, func(u *Unit, c *GameClock) {})
		assert.ErrorIs(t, err, ecs.ErrModeConflict)

		err = conv.Register(ecs.ConverterFunc(func(u *Unit, m *Marker) {}))
		assert.ErrorIs(t, err, ecs.ErrTypeMismatch)

		err = ecs.RegisterConverter(conv, func(m *Marker, p *Position) {})
		assert.NoError(t, err)
	})
}
