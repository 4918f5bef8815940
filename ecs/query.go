package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// Query selects every archetype whose component set contains the queried
// types. Unlike Scene.Archetype, which matches a set exactly, a query
// matches supersets.
//
// The order in which types are passed to Scene.Query defines the query
// indices used by QueryResult.
type Query struct {
	scene *Scene
	set   ComponentSet
	types [MaxSetComponents]ComponentType
	n     int
}

// Query builds a query over types.
func (s *Scene) Query(types ...ComponentType) (*Query, error) {
	if len(types) > MaxSetComponents {
		return nil, newError("query", ErrCapacityExceeded, "%d component types, limit is %d", len(types), MaxSetComponents)
	}
	set, err := NewComponentSet(types...)
	if err != nil {
		return nil, err
	}
	if err := s.checkSet("query", set); err != nil {
		return nil, err
	}
	if set.Mode() == ModeSingleton {
		return nil, newError("query", ErrModeConflict, "singleton types cannot be queried")
	}

	q := &Query{scene: s, set: set, n: len(types)}
	copy(q.types[:], types)
	return q, nil
}

// MustQuery is like Query but panics on error.
func (s *Scene) MustQuery(types ...ComponentType) *Query {
	q, err := s.Query(types...)
	if err != nil {
		panic(err)
	}
	return q
}

// Scene returns the queried scene.
func (q *Query) Scene() *Scene {
	return q.scene
}

// Set returns the union of the queried types.
func (q *Query) Set() ComponentSet {
	return q.set
}

// Types returns the queried types in query index order.
func (q *Query) Types() []ComponentType {
	return q.types[:q.n:q.n]
}

// Match yields every archetype matching the query, including empty ones.
func (q *Query) Match() iter.Seq[*Archetype] {
	return q.scene.Supersets(q.set)
}

// Archetypes yields every matching archetype that holds entities.
func (q *Query) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for a := range q.Match() {
			if a.Count() == 0 {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Count returns the number of committed entities matching the query.
func (q *Query) Count() int {
	total := 0
	for a := range q.Archetypes() {
		total += a.Count()
	}
	return total
}

// QueryOffsets holds the record offsets of every queried type within one
// archetype, resolved once per archetype.
type QueryOffsets struct {
	offsets [MaxSetComponents]int32
	n       int
}

// Len returns the number of resolved offsets.
func (o *QueryOffsets) Len() int {
	return o.n
}

// At returns the record offset of query index i.
func (o *QueryOffsets) At(i int) int {
	return int(o.offsets[i])
}

// Offsets resolves the record offset of every queried type in a. It panics
// with ErrTypeMismatch if a does not match the query.
func (q *Query) Offsets(a *Archetype) QueryOffsets {
	var o QueryOffsets
	o.n = q.n
	for i := range q.n {
		off := a.OffsetOf(q.types[i])
		if off < 0 {
			fail("query offsets", ErrTypeMismatch, "archetype %d has no %s", a.id, q.types[i])
		}
		o.offsets[i] = int32(off)
	}
	return o
}

// QueryResult is the accessor handed to query callbacks for one entity. It
// is reused between entities and must not be retained.
type QueryResult struct {
	query   *Query
	arch    *Archetype
	offsets *QueryOffsets
	chunk   *Chunk
	record  int
	index   int
}

// Archetype returns the archetype of the current entity.
func (r *QueryResult) Archetype() *Archetype {
	return r.arch
}

// Index returns the slot index of the current entity.
func (r *QueryResult) Index() int {
	return r.index
}

func (r *QueryResult) header() *entityHeader {
	return (*entityHeader)(r.chunk.at(r.record))
}

// Entity returns the id of the current entity.
func (r *QueryResult) Entity() EntityId {
	return NewEntityId(r.arch.id, r.header().key(), r.index)
}

// View returns an EntityView of the current entity.
func (r *QueryResult) View() EntityView {
	return EntityView{arch: r.arch, chunk: r.chunk, offset: r.record, index: r.index}
}

// IsInvalid reports whether the current entity was removed in this window.
func (r *QueryResult) IsInvalid() bool {
	return r.header().invalid()
}

// Lock acquires the per-entity spinlock of the current entity.
func (r *QueryResult) Lock() {
	r.header().spinLock()
}

// Unlock releases the per-entity spinlock of the current entity.
func (r *QueryResult) Unlock() {
	r.header().spinUnlock()
}

// Pointer returns the address of the component at query index i.
func (r *QueryResult) Pointer(i int) unsafe.Pointer {
	if checks && (i < 0 || i >= r.offsets.n) {
		fail("query result", ErrTypeMismatch, "query index %d out of range [0, %d)", i, r.offsets.n)
	}
	return r.chunk.at(r.record + int(r.offsets.offsets[i]))
}

// Bytes returns the component data at query index i.
func (r *QueryResult) Bytes(i int) []byte {
	return unsafe.Slice((*byte)(r.Pointer(i)), r.query.types[i].Size())
}

// Component returns the component at query index i as a *T. It panics with
// ErrTypeMismatch if query index i does not hold a T.
func Component[T any](r *QueryResult, i int) *T {
	if checks {
		if i < 0 || i >= r.query.n {
			fail("query result", ErrTypeMismatch, "query index %d out of range [0, %d)", i, r.query.n)
		}
		if t := r.query.scene.ctx.types.ReflectType(r.query.types[i]); t != reflect.TypeFor[T]() {
			fail("query result", ErrTypeMismatch, "query index %d is %v, not %v", i, t, reflect.TypeFor[T]())
		}
	}
	return (*T)(r.chunk.at(r.record + int(r.offsets.offsets[i])))
}

// runRange invokes fn for every entity in [start, end) of a.
func (q *Query) runRange(a *Archetype, offsets *QueryOffsets, start, end int, fn func(*QueryResult)) {
	res := QueryResult{query: q, arch: a, offsets: offsets}
	for cr := range a.Range(start, end) {
		res.chunk = cr.Chunk
		for i := cr.InnerStart; i < cr.InnerEnd; i++ {
			res.record = i * a.entitySize
			res.index = cr.ChunkStart + i
			fn(&res)
		}
	}
}

// ForEach invokes fn for every matching entity, scheduled according to mode.
// Run ignores sched and executes before returning. Single schedules one unit
// per archetype, each depending on the previous. Parallel schedules one unit
// per chunk and combines the handles of every archetype. A nil sched runs
// the work inline.
func (q *Query) ForEach(sched Scheduler, mode ScheduleMode, dependsOn Handle, fn func(*QueryResult)) Handle {
	return q.schedule(sched, mode, dependsOn, func(a *Archetype, offsets *QueryOffsets, start, end int) {
		q.runRange(a, offsets, start, end, fn)
	})
}

// ForEachChunk is like ForEach but invokes fn once per chunk range.
func (q *Query) ForEachChunk(sched Scheduler, mode ScheduleMode, dependsOn Handle, fn func(*Archetype, *QueryOffsets, ChunkRange)) Handle {
	return q.schedule(sched, mode, dependsOn, func(a *Archetype, offsets *QueryOffsets, start, end int) {
		for cr := range a.Range(start, end) {
			fn(a, offsets, cr)
		}
	})
}

// schedule emits one work item per archetype, or per chunk in Parallel
// mode. Entity counts and offsets are captured when the work is scheduled.
func (q *Query) schedule(sched Scheduler, mode ScheduleMode, dependsOn Handle, unit func(a *Archetype, offsets *QueryOffsets, start, end int)) Handle {
	if sched == nil {
		sched = InlineScheduler{}
	}
	switch mode {
	case Run:
		if err := Wait(dependsOn); err != nil {
			return doneHandle{err: err}
		}
		for a := range q.Archetypes() {
			offsets := q.Offsets(a)
			unit(a, &offsets, 0, a.Count())
		}
		return doneHandle{}

	case Single:
		target := dependsOn
		for a := range q.Archetypes() {
			offsets := q.Offsets(a)
			count := a.Count()
			target = sched.Schedule(target, func() {
				unit(a, &offsets, 0, count)
			})
		}
		if target == nil {
			return doneHandle{}
		}
		return target

	case Parallel:
		var handles []Handle
		for a := range q.Archetypes() {
			offsets := q.Offsets(a)
			handles = append(handles, sched.ScheduleParallel(dependsOn, a.Count(), a.perChunk, func(start, end int) {
				unit(a, &offsets, start, end)
			}))
		}
		if len(handles) == 0 {
			if dependsOn == nil {
				return doneHandle{}
			}
			return dependsOn
		}
		return sched.Combine(handles...)

	default:
		fail("query", ErrInvalidHandle, "unknown schedule mode %d", mode)
		return nil
	}
}

// Each yields every matching entity on the calling goroutine.
func (q *Query) Each() iter.Seq[*QueryResult] {
	return func(yield func(*QueryResult) bool) {
		for a := range q.Archetypes() {
			offsets := q.Offsets(a)
			res := QueryResult{query: q, arch: a, offsets: &offsets}
			for cr := range a.Range(0, a.Count()) {
				res.chunk = cr.Chunk
				for i := cr.InnerStart; i < cr.InnerEnd; i++ {
					res.record = i * a.entitySize
					res.index = cr.ChunkStart + i
					if !yield(&res) {
						return
					}
				}
			}
		}
	}
}

// ForEachGroup invokes fn once per matching archetype, empty ones included,
// on the calling goroutine. It is typically used to reserve slots in every
// matching archetype before a parallel creation pass.
func (q *Query) ForEachGroup(fn func(*Archetype)) {
	for a := range q.Match() {
		fn(a)
	}
}
