package ecs

import (
	"iter"
	"log/slog"
	"math/bits"
	"sync/atomic"
)

const archetypeMaskWords = (MaxArchetypes + 1 + 63) / 64

// Scene owns the archetypes of one world. It canonicalizes component sets to
// archetypes and keeps, per component id, the set of archetypes containing
// it, which drives superset queries.
//
// Lookups of existing archetypes are lock free; only creating a new
// archetype takes the scene lock.
type Scene struct {
	ctx    *Context
	index  int
	logger *slog.Logger

	lock       SpinLock
	archetypes [MaxArchetypes + 1]atomic.Pointer[Archetype]
	compCounts [MaxArchetypes + 1]atomic.Int32
	inUse      [MaxComponentTypes][archetypeMaskWords]atomic.Uint64
	count      atomic.Int32

	refs   *RefTable
	closed atomic.Bool
}

func newScene(ctx *Context, index int) *Scene {
	s := &Scene{
		ctx:    ctx,
		index:  index,
		logger: ctx.logger.With("scene", index),
		refs:   NewRefTable(),
	}
	singletons, _ := newArchetype(s, singletonArchetypeID, ComponentSet{})
	s.archetypes[singletonArchetypeID].Store(singletons)
	return s
}

// Index returns the slot of the scene in its Context.
func (s *Scene) Index() int {
	return s.index
}

// Context returns the owning context.
func (s *Scene) Context() *Context {
	return s.ctx
}

// Types returns the type registry shared by the context.
func (s *Scene) Types() *TypeRegistry {
	return s.ctx.types
}

// Refs returns the managed-reference table of the scene.
func (s *Scene) Refs() *RefTable {
	return s.refs
}

// Archetype returns the archetype whose component set equals set exactly,
// creating it on first request.
func (s *Scene) Archetype(set ComponentSet) (*Archetype, error) {
	if err := s.checkSet("archetype", set); err != nil {
		return nil, err
	}
	if set.Mode() == ModeSingleton {
		return nil, newError("archetype", ErrModeConflict, "singleton types live in the singleton container")
	}

	if a := s.findExact(set); a != nil {
		return a, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if a := s.findExact(set); a != nil {
		return a, nil
	}

	id := int(s.count.Load()) + 1
	if id > MaxArchetypes {
		return nil, newError("archetype", ErrCapacityExceeded, "scene %d holds %d archetypes", s.index, MaxArchetypes)
	}
	a, err := newArchetype(s, id, set)
	if err != nil {
		return nil, err
	}

	s.archetypes[id].Store(a)
	s.compCounts[id].Store(int32(set.Len()))
	word, bit := id>>6, uint64(1)<<uint(id&63)
	for cid := range set.IDs() {
		s.inUse[cid][word].Or(bit)
	}
	s.count.Store(int32(id))

	s.logger.Debug("archetype created", "archetype", id, "components", set.Names(s.ctx.types), "entity_size", a.entitySize)
	return a, nil
}

// ArchetypeOf is Archetype for a list of types. Order and duplicates do not
// matter.
func (s *Scene) ArchetypeOf(types ...ComponentType) (*Archetype, error) {
	set, err := NewComponentSet(types...)
	if err != nil {
		return nil, err
	}
	return s.Archetype(set)
}

// MustArchetypeOf is like ArchetypeOf but panics on error.
func (s *Scene) MustArchetypeOf(types ...ComponentType) *Archetype {
	a, err := s.ArchetypeOf(types...)
	if err != nil {
		panic(err)
	}
	return a
}

func (s *Scene) checkSet(op string, set ComponentSet) error {
	if s.closed.Load() {
		return newError(op, ErrInvalidHandle, "scene %d is closed", s.index)
	}
	if set.IsEmpty() {
		return newError(op, ErrInvalidHandle, "empty component set")
	}
	if set.Len() > MaxSetComponents {
		return newError(op, ErrCapacityExceeded, "%d component types, limit is %d", set.Len(), MaxSetComponents)
	}
	return nil
}

// match ANDs the inverted index masks of every member of set. Bits beyond
// the published archetype count are cleared.
func (s *Scene) match(set ComponentSet) (mask [archetypeMaskWords]uint64, n int) {
	n = int(s.count.Load())
	for w := range mask {
		mask[w] = ^uint64(0)
	}
	for cid := range set.IDs() {
		for w := range mask {
			mask[w] &= s.inUse[cid][w].Load()
		}
	}
	mask[0] &^= 1 << singletonArchetypeID
	for w := range mask {
		lo := w * 64
		switch {
		case lo > n:
			mask[w] = 0
		case lo+64 > n+1:
			mask[w] &= 1<<uint(n+1-lo) - 1
		}
	}
	return mask, n
}

func (s *Scene) findExact(set ComponentSet) *Archetype {
	mask, _ := s.match(set)
	want := int32(set.Len())
	for w, word := range mask {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			id := w<<6 | b
			if s.compCounts[id].Load() == want {
				if a := s.archetypes[id].Load(); a != nil {
					return a
				}
			}
			word &= word - 1
		}
	}
	return nil
}

// Supersets yields every archetype whose component set contains set, in id
// order, including empty ones.
func (s *Scene) Supersets(set ComponentSet) iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		mask, _ := s.match(set)
		for w, word := range mask {
			for word != 0 {
				b := bits.TrailingZeros64(word)
				if a := s.archetypes[w<<6|b].Load(); a != nil {
					if !yield(a) {
						return
					}
				}
				word &= word - 1
			}
		}
	}
}

// ArchetypeByID returns the archetype with the given id. Id 0 is the
// singleton container.
func (s *Scene) ArchetypeByID(id int) (*Archetype, error) {
	if id < 0 || id > int(s.count.Load()) {
		return nil, newError("archetype by id", ErrInvalidHandle, "scene %d has no archetype %d", s.index, id)
	}
	a := s.archetypes[id].Load()
	if a == nil {
		return nil, newError("archetype by id", ErrInvalidHandle, "scene %d has no archetype %d", s.index, id)
	}
	return a, nil
}

// Archetypes yields every regular archetype in id order.
func (s *Scene) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		n := int(s.count.Load())
		for id := 1; id <= n; id++ {
			a := s.archetypes[id].Load()
			if a == nil {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// ArchetypeCount returns the number of regular archetypes.
func (s *Scene) ArchetypeCount() int {
	return int(s.count.Load())
}

// Singletons returns the singleton container.
func (s *Scene) Singletons() *Archetype {
	return s.archetypes[singletonArchetypeID].Load()
}

// Singleton returns the storage of the singleton component ct, creating it
// zeroed on first use.
func (s *Scene) Singleton(ct ComponentType) (SingletonRef, error) {
	ref, _, err := s.singleton(ct)
	return ref, err
}

func (s *Scene) singleton(ct ComponentType) (SingletonRef, bool, error) {
	if s.closed.Load() {
		return SingletonRef{}, false, newError("singleton", ErrInvalidHandle, "scene %d is closed", s.index)
	}
	if ct.IsNull() || ct.Mode() != ModeSingleton {
		return SingletonRef{}, false, newError("singleton", ErrModeConflict, "%s is not a singleton component", ct)
	}
	ref, added, err := s.Singletons().singleton(ct)
	if err != nil {
		return SingletonRef{}, false, err
	}
	if added {
		s.logger.Debug("singleton created", "type", s.ctx.types.ReflectType(ct).String())
	}
	return ref, added, nil
}

// EntityCount returns the number of committed entities across archetypes.
func (s *Scene) EntityCount() int {
	total := 0
	for a := range s.Archetypes() {
		total += a.Count()
	}
	return total
}

// Lookup resolves id to a view of a live entity.
func (s *Scene) Lookup(id EntityId) (EntityView, bool) {
	a, err := s.ArchetypeByID(id.ArchetypeId())
	if err != nil {
		return EntityView{}, false
	}
	return a.Lookup(id)
}

// Remove removes the entity identified by id. It panics with
// ErrInvalidHandle if id is stale.
func (s *Scene) Remove(id EntityId) EntityView {
	a, err := s.ArchetypeByID(id.ArchetypeId())
	if err != nil {
		panic(err)
	}
	return a.RemoveEntity(id)
}

// Complete runs the completion barrier for every archetype: staged creations
// become visible, removals are compacted and released references are
// recycled. Archetypes with at least InlineRemoveThreshold pending removals
// are compacted through sched, which may be nil.
//
// No work may be running against the scene while Complete runs.
func (s *Scene) Complete(sched Scheduler) error {
	var handles []Handle
	for a := range s.Archetypes() {
		a.CompleteCreate()
		if sched == nil || a.PendingRemovals() < InlineRemoveThreshold {
			a.CompleteRemove()
			continue
		}
		handles = append(handles, sched.Schedule(nil, a.CompleteRemove))
	}
	s.refs.Complete()
	if len(handles) == 0 {
		return nil
	}
	return sched.Combine(handles...).Wait()
}

// close disposes every archetype and returns their chunks to the pool.
func (s *Scene) close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	n := int(s.count.Load())
	for id := 0; id <= n; id++ {
		if a := s.archetypes[id].Load(); a != nil {
			a.dispose()
		}
	}
	s.refs.Clear()
	s.logger.Debug("scene closed", "archetypes", n)
}
