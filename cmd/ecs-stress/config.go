package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/plus3/chunkecs/ecs"
	"github.com/plus3/chunkecs/internal/config"
)

// Config holds stress test configuration. Environment variables provide the
// defaults and flags override them.
type Config struct {
	Duration       time.Duration `env:"ECS_STRESS_DURATION"         envDefault:"10s"`
	Entities       int           `env:"ECS_STRESS_ENTITIES"         envDefault:"10000"`
	Scenes         int           `env:"ECS_STRESS_SCENES"           envDefault:"1"`
	Churn          int           `env:"ECS_STRESS_CHURN"            envDefault:"100"`
	Workers        int           `env:"ECS_STRESS_WORKERS"          envDefault:"0"`
	Mode           string        `env:"ECS_STRESS_MODE"             envDefault:"parallel"`
	Profile        string        `env:"ECS_STRESS_PROFILE"`
	LogFormat      string        `env:"ECS_STRESS_LOG_FORMAT"       envDefault:"text"`
	LogLevel       string        `env:"ECS_STRESS_LOG_LEVEL"        envDefault:"info"`
	GCPauseMetrics bool          `env:"ECS_STRESS_GC_PAUSE_METRICS"`

	Context ecs.Config `env:"-"`
}

// ParseConfig parses the environment and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := config.Parse[Config]()
	if err != nil {
		return Config{}, err
	}
	if cfg.Context, err = config.Load[ecs.Config](); err != nil {
		return Config{}, err
	}

	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "The total duration the test should run for.")
	fs.IntVar(&cfg.Entities, "entities", cfg.Entities, "The initial number of entities to create per scene.")
	fs.IntVar(&cfg.Scenes, "scenes", cfg.Scenes, "The number of scenes to simulate.")
	fs.IntVar(&cfg.Churn, "churn", cfg.Churn, "Entities spawned per scene and frame.")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers; 0 uses GOMAXPROCS.")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Query schedule mode: run, single or parallel.")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "Write a profile: cpu, mem or empty for none.")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error.")
	fs.BoolVar(&cfg.GCPauseMetrics, "gc-pause-metrics", cfg.GCPauseMetrics, "Enable detailed GC pause metrics in the report.")
	fs.IntVar(&cfg.Context.ChunkPoolCapacity, "chunk-pool", cfg.Context.ChunkPoolCapacity, "Free chunks retained by the chunk pool.")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the merged environment and flag values.
func (c Config) Validate() error {
	if c.Scenes < 1 || c.Scenes > ecs.MaxScenes {
		return fmt.Errorf("scenes must be in [1, %d], got %d", ecs.MaxScenes, c.Scenes)
	}
	if c.Entities < 0 || c.Churn < 0 {
		return fmt.Errorf("entities and churn must not be negative")
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Profile)
	}
	if _, err := c.ScheduleMode(); err != nil {
		return err
	}
	return c.Context.Validate()
}

// ScheduleMode maps the mode flag to an ecs.ScheduleMode.
func (c Config) ScheduleMode() (ecs.ScheduleMode, error) {
	switch strings.ToLower(c.Mode) {
	case "run":
		return ecs.Run, nil
	case "single":
		return ecs.Single, nil
	case "parallel":
		return ecs.Parallel, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", c.Mode)
	}
}

// NewLogger builds the structured logger selected by the configuration.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
}
