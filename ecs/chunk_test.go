package ecs_test

import (
	"testing"

	"github.com/plus3/chunkecs/ecs"
	"github.com/stretchr/testify/assert"
)

func TestChunkPool(t *testing.T) {
	t.Run("acquire allocates when empty", func(t *testing.T) {
		pool := ecs.NewChunkPool(2)
		c := pool.Acquire()
		assert.Len(t, c.Bytes(), ecs.ChunkSize)
		assert.Equal(t, int64(1), pool.Stats().Allocated)
		assert.Equal(t, 0, pool.Len())
	})

	t.Run("released chunks are reused", func(t *testing.T) {
		pool := ecs.NewChunkPool(2)
		c := pool.Acquire()
		c.Bytes()[0] = 7

		pool.Release(c)
		assert.Equal(t, 1, pool.Len())

		again := pool.Acquire()
		assert.Same(t, c, again)
		assert.Equal(t, byte(7), again.Bytes()[0])

		stats := pool.Stats()
		assert.Equal(t, int64(1), stats.Allocated)
		assert.Equal(t, int64(1), stats.Reused)
		assert.Equal(t, int64(1), stats.Released)
	})

	t.Run("chunks beyond capacity are dropped", func(t *testing.T) {
		pool := ecs.NewChunkPool(2)
		chunks := []*ecs.Chunk{pool.Acquire(), pool.Acquire(), pool.Acquire()}
		for _, c := range chunks {
			pool.Release(c)
		}
		pool.Release(nil)

		stats := pool.Stats()
		assert.Equal(t, 2, stats.Pooled)
		assert.Equal(t, 2, stats.Capacity)
		assert.Equal(t, int64(2), stats.Released)
		assert.Equal(t, int64(1), stats.Dropped)
	})

	t.Run("reset empties the pool", func(t *testing.T) {
		pool := ecs.NewChunkPool(4)
		pool.Release(pool.Acquire())
		pool.Reset()
		assert.Equal(t, 0, pool.Len())
	})

	t.Run("negative capacity retains nothing", func(t *testing.T) {
		pool := ecs.NewChunkPool(-1)
		pool.Release(pool.Acquire())
		assert.Equal(t, 0, pool.Len())
		assert.Equal(t, int64(1), pool.Stats().Dropped)
	})
}
