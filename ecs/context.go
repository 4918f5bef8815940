package ecs

import (
	"errors"
	"iter"
	"log/slog"
	"sync/atomic"
)

// Config configures a Context. The env tags let binaries load it with
// caarlos0/env.
type Config struct {
	ChunkPoolCapacity int          `env:"ECS_CHUNK_POOL_CAPACITY" envDefault:"25"`
	Logger            *slog.Logger `env:"-"`
}

// Validate reports settings a Context would silently clamp.
func (c Config) Validate() error {
	if c.ChunkPoolCapacity < 0 {
		return newError("config", ErrCapacityExceeded, "chunk pool capacity %d is negative", c.ChunkPoolCapacity)
	}
	return nil
}

// Option customizes a Context.
type Option func(*Config)

// WithLogger sets the structured logger for structural events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkPoolCapacity sets how many free chunks the pool retains.
func WithChunkPoolCapacity(n int) Option {
	return func(c *Config) {
		c.ChunkPoolCapacity = n
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// Context holds the process-wide state of the storage engine: the type
// registry, the chunk pool and the scene table. Nothing in this package is
// global; create one Context per engine instance.
type Context struct {
	cfg    Config
	logger *slog.Logger
	types  *TypeRegistry
	chunks *ChunkPool

	lock   SpinLock
	scenes [MaxScenes]atomic.Pointer[Scene]
}

// NewContext creates a Context.
func NewContext(opts ...Option) *Context {
	cfg := Config{ChunkPoolCapacity: DefaultChunkPoolCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}

	return &Context{
		cfg:    cfg,
		logger: cfg.Logger,
		types:  NewTypeRegistry(cfg.Logger),
		chunks: NewChunkPool(cfg.ChunkPoolCapacity),
	}
}

// Types returns the component type registry.
func (c *Context) Types() *TypeRegistry {
	return c.types
}

// Chunks returns the shared chunk pool.
func (c *Context) Chunks() *ChunkPool {
	return c.chunks
}

// Logger returns the configured logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Scene returns scene i, creating it on first use.
func (c *Context) Scene(i int) (*Scene, error) {
	if i < 0 || i >= MaxScenes {
		return nil, newError("scene", ErrInvalidHandle, "scene %d out of range [0, %d)", i, MaxScenes)
	}
	if s := c.scenes[i].Load(); s != nil {
		return s, nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if s := c.scenes[i].Load(); s != nil {
		return s, nil
	}
	s := newScene(c, i)
	c.scenes[i].Store(s)
	c.logger.Debug("scene created", "scene", i)
	return s, nil
}

// MustScene is like Scene but panics on error.
func (c *Context) MustScene(i int) *Scene {
	s, err := c.Scene(i)
	if err != nil {
		panic(err)
	}
	return s
}

// Scenes yields every scene created so far.
func (c *Context) Scenes() iter.Seq[*Scene] {
	return func(yield func(*Scene) bool) {
		for i := range c.scenes {
			s := c.scenes[i].Load()
			if s == nil {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Complete runs Scene.Complete on every scene.
func (c *Context) Complete(sched Scheduler) error {
	var errs []error
	for s := range c.Scenes() {
		if err := s.Complete(sched); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseScene disposes scene i. A later Scene(i) creates a fresh scene.
func (c *Context) CloseScene(i int) {
	if i < 0 || i >= MaxScenes {
		return
	}
	c.lock.Lock()
	s := c.scenes[i].Swap(nil)
	c.lock.Unlock()
	if s != nil {
		s.close()
	}
}

// Reset closes every scene, forgets every component type and empties the
// chunk pool.
func (c *Context) Reset() {
	for i := range c.scenes {
		c.CloseScene(i)
	}
	c.types.Reset()
	c.chunks.Reset()
	c.logger.Debug("context reset")
}
