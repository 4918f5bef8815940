package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/chunkecs/ecs"
	"github.com/plus3/chunkecs/internal/config"
)

type workerConfig struct {
	Workers int `env:"CHUNKECS_TEST_WORKERS" envDefault:"4"`
}

func (c workerConfig) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be positive")
	}
	return nil
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Parse[workerConfig]()
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Setenv("CHUNKECS_TEST_WORKERS", "not-an-int")
		_, err := config.Parse[workerConfig]()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("does not validate", func(t *testing.T) {
		t.Setenv("CHUNKECS_TEST_WORKERS", "0")
		cfg, err := config.Parse[workerConfig]()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Workers)
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr string
	}{
		{"default", "", 4, ""},
		{"override", "8", 8, ""},
		{"invalid", "0", 0, "invalid env: workers must be positive"},
		{"malformed", "eight", 0, "parse env:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("CHUNKECS_TEST_WORKERS", tt.value)
			}
			cfg, err := config.Load[workerConfig]()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Workers)
		})
	}
}

func TestLoadContextConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		cfg, err := config.Load[ecs.Config]()
		require.NoError(t, err)
		assert.Equal(t, ecs.DefaultChunkPoolCapacity, cfg.ChunkPoolCapacity)
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("ECS_CHUNK_POOL_CAPACITY", "4")
		cfg, err := config.Load[ecs.Config]()
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.ChunkPoolCapacity)

		ctx := ecs.NewContext(ecs.WithConfig(cfg))
		assert.Equal(t, 4, ctx.Chunks().Stats().Capacity)
	})

	t.Run("negative", func(t *testing.T) {
		t.Setenv("ECS_CHUNK_POOL_CAPACITY", "-1")
		_, err := config.Load[ecs.Config]()
		assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
	})
}
