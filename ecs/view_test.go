package ecs_test

import (
	"slices"
	"testing"

	"github.com/plus3/chunkecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movingView struct {
	*Position
	*Velocity
	Health *Health `ecs:"optional"`
}

func TestView(t *testing.T) {
	t.Run("get fills required and optional fields", func(t *testing.T) {
		scene := newTestScene(t)
		view := ecs.MustView[movingView](scene)

		withHealth, err := view.Spawn(movingView{
			Position: &Position{X: 1, Y: 2},
			Velocity: &Velocity{DX: 3},
			Health:   &Health{Current: 7, Max: 10},
		})
		require.NoError(t, err)
		without, err := view.Spawn(movingView{
			Position: &Position{X: 4},
			Velocity: &Velocity{DY: 5},
		})
		require.NoError(t, err)
		assert.NotSame(t, withHealth.Archetype(), without.Archetype())
		complete(t, scene)

		item := view.Get(withHealth.Id())
		require.NotNil(t, item)
		assert.Equal(t, Position{X: 1, Y: 2}, *item.Position)
		assert.Equal(t, Velocity{DX: 3}, *item.Velocity)
		require.NotNil(t, item.Health)
		assert.Equal(t, 7, item.Health.Current)

		item = view.Get(without.Id())
		require.NotNil(t, item)
		assert.Equal(t, float32(4), item.Position.X)
		assert.Nil(t, item.Health)

		item.Position.Z = 8
		assert.Equal(t, float32(8), view.Get(without.Id()).Position.Z)
	})

	t.Run("entities missing a required component are skipped", func(t *testing.T) {
		scene := newTestScene(t)
		a := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Health](scene))
		ids := spawn(a, 1, nil)
		complete(t, scene)

		view := ecs.MustView[movingView](scene)
		assert.Nil(t, view.Get(ids[0]))

		var item movingView
		e, ok := scene.Lookup(ids[0])
		require.True(t, ok)
		assert.False(t, view.Fill(e, &item))
		assert.False(t, view.Fill(ecs.EntityView{}, &item))
		assert.Nil(t, view.Get(ecs.NewEntityId(7, 0, 0)))
	})

	t.Run("iteration covers every matching archetype", func(t *testing.T) {
		scene := newTestScene(t)
		view := ecs.MustView[movingView](scene)
		plain := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Velocity](scene))
		healthy := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Velocity](scene), typeOf[Health](scene))
		spawn(plain, 1000, func(i int, e ecs.EntityView) {
			ecs.Set(e, Position{X: float32(i)})
		})
		spawn(healthy, 3, nil)
		spawn(scene.MustArchetypeOf(typeOf[Position](scene)), 5, nil)
		complete(t, scene)

		count, withHealth := 0, 0
		for id, item := range view.Iter() {
			if item.Health != nil {
				withHealth++
			} else {
				assert.Equal(t, float32(id.Index()), item.Position.X)
			}
			count++
		}
		assert.Equal(t, 1003, count)
		assert.Equal(t, 3, withHealth)

		values := slices.Collect(view.Values())
		assert.Len(t, values, 1003)

		for range view.Iter() {
			break
		}
	})

	t.Run("query uses the required fields", func(t *testing.T) {
		scene := newTestScene(t)
		view := ecs.MustView[movingView](scene)

		q, err := view.Query()
		require.NoError(t, err)
		assert.True(t, q.Set().Equal(view.Required()))
		assert.Equal(t, 2, view.Required().Len())
		assert.False(t, view.Required().Contains(typeOf[Health](scene)))

		a := scene.MustArchetypeOf(typeOf[Position](scene), typeOf[Velocity](scene))
		spawn(a, 4, nil)
		complete(t, scene)

		filled := 0
		q.ForEach(ecs.InlineScheduler{}, ecs.Run, nil, func(r *ecs.QueryResult) {
			var item movingView
			if view.FillResult(r, &item) {
				item.Velocity.DX = 2
				filled++
			}
		})
		assert.Equal(t, 4, filled)
		for e := range a.Entities() {
			assert.Equal(t, float32(2), ecs.Get[Velocity](e).DX)
		}
	})

	t.Run("spawn requires the required fields", func(t *testing.T) {
		scene := newTestScene(t)
		view := ecs.MustView[movingView](scene)

		_, err := view.Spawn(movingView{Position: &Position{}})
		assert.ErrorIs(t, err, ecs.ErrInvalidHandle)
	})

	t.Run("invalid view types", func(t *testing.T) {
		tests := []struct {
			name string
			init func(*ecs.Scene) error
			kind error
		}{
			{"not a struct", func(s *ecs.Scene) error {
				_, err := ecs.NewView[int](s)
				return err
			}, ecs.ErrTypeMismatch},
			{"field is not a pointer", func(s *ecs.Scene) error {
				_, err := ecs.NewView[struct{ P Position }](s)
				return err
			}, ecs.ErrTypeMismatch},
			{"unknown tag", func(s *ecs.Scene) error {
				_, err := ecs.NewView[struct {
					P *Position `ecs:"maybe"`
				}](s)
				return err
			}, ecs.ErrTypeMismatch},
			{"reference component", func(s *ecs.Scene) error {
				_, err := ecs.NewView[struct{ I *Inventory }](s)
				return err
			}, ecs.ErrTypeMismatch},
			{"singleton field", func(s *ecs.Scene) error {
				_, err := ecs.NewView[struct {
					*Position
					*GameClock
				}](s)
				return err
			}, ecs.ErrModeConflict},
			{"only optional fields", func(s *ecs.Scene) error {
				_, err := ecs.NewView[struct {
					P *Position `ecs:"optional"`
				}](s)
				return err
			}, ecs.ErrInvalidHandle},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, tt.init(newTestScene(t)), tt.kind)
			})
		}
	})
}
