package ecs

import "fmt"

// Commands buffers structural changes made while systems run. They are
// applied by Flush, which the Runner calls at the end of every frame before
// the completion barrier. Commands is safe for concurrent use, so parallel
// query callbacks may record into the same buffer.
type Commands struct {
	lock    SpinLock
	creates []createCommand
	removes []EntityId
	defers  []func()
}

type createCommand struct {
	arch *Archetype
	init func(EntityView)
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Create queues the creation of an entity in a. init, which may be nil,
// receives the zeroed record to fill.
func (c *Commands) Create(a *Archetype, init func(EntityView)) {
	c.lock.Lock()
	c.creates = append(c.creates, createCommand{arch: a, init: init})
	c.lock.Unlock()
}

// Remove queues the removal of the entity identified by id.
func (c *Commands) Remove(id EntityId) {
	c.lock.Lock()
	c.removes = append(c.removes, id)
	c.lock.Unlock()
}

// Defer queues fn to run after every create and remove has been applied.
func (c *Commands) Defer(fn func()) {
	c.lock.Lock()
	c.defers = append(c.defers, fn)
	c.lock.Unlock()
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.creates) + len(c.removes) + len(c.defers)
}

// Flush applies every queued command to scene and resets the buffer.
// Removals run first, then creations with a single WillCreate per
// archetype, then deferred funcs. Removals of ids that are no longer live
// are skipped and reported in the returned error, which wraps
// ErrInvalidHandle.
func (c *Commands) Flush(scene *Scene) error {
	c.lock.Lock()
	creates, removes, defers := c.creates, c.removes, c.defers
	c.creates, c.removes, c.defers = nil, nil, nil
	c.lock.Unlock()

	stale := 0
	for _, id := range removes {
		if _, ok := scene.Lookup(id); !ok {
			stale++
			continue
		}
		scene.Remove(id)
	}

	reserved := make(map[*Archetype]int)
	for _, cmd := range creates {
		reserved[cmd.arch]++
	}
	for a, n := range reserved {
		a.WillCreate(n)
	}
	for _, cmd := range creates {
		e := cmd.arch.Create()
		if cmd.init != nil {
			cmd.init(e)
		}
	}

	for _, fn := range defers {
		fn()
	}

	if stale > 0 {
		return fmt.Errorf("flush commands: %w", newError("remove", ErrInvalidHandle, "%d of %d ids were not live", stale, len(removes)))
	}
	return nil
}
