package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/chunkecs/ecs"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("ECS_STRESS_ENTITIES", "42")
	t.Setenv("ECS_CHUNK_POOL_CAPACITY", "7")

	cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-mode", "single", "-scenes", "2"})
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Entities)
	assert.Equal(t, 2, cfg.Scenes)
	assert.Equal(t, 7, cfg.Context.ChunkPoolCapacity)

	mode, err := cfg.ScheduleMode()
	require.NoError(t, err)
	assert.Equal(t, ecs.Single, mode)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"-mode", "sideways"}},
		{"too many scenes", []string{"-scenes", "33"}},
		{"negative churn", []string{"-churn", "-1"}},
		{"unknown profile", []string{"-profile", "trace"}},
		{"negative chunk pool", []string{"-chunk-pool", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseConfigRejectsEnv(t *testing.T) {
	t.Setenv("ECS_CHUNK_POOL_CAPACITY", "-3")

	_, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
}

func TestRun(t *testing.T) {
	for _, mode := range []string{"run", "single", "parallel"} {
		t.Run(mode, func(t *testing.T) {
			cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{
				"-mode", mode, "-entities", "500", "-churn", "20", "-scenes", "2", "-workers", "2",
			})
			require.NoError(t, err)
			cfg.Duration = 50 * time.Millisecond

			var out bytes.Buffer
			logger := slog.New(slog.DiscardHandler)
			require.NoError(t, Run(context.Background(), cfg, logger, &out))

			report := out.String()
			assert.Contains(t, report, "# ECS Stress Test Report")
			assert.Contains(t, report, "Schedule Mode:** "+mode)
			assert.Contains(t, report, "MovementSystem")
			assert.Contains(t, report, "Scene 1:")
		})
	}
}
