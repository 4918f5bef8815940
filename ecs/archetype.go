package ecs

import (
	"iter"
	"sync/atomic"
)

// Archetype stores every entity of one exact component set in fixed size
// records packed into chunks.
//
// Structural changes are two-phase. During a mutation window callers reserve
// slots with WillCreate, fill them concurrently with Create, and mark records
// for removal with Remove. None of that is visible to iteration until
// CompleteCreate and CompleteRemove run at the barrier.
type Archetype struct {
	id    int
	scene *Scene
	types *TypeRegistry
	pool  *ChunkPool

	set    ComponentSet
	layout layoutTable

	entitySize int
	perChunk   int

	lock         SpinLock
	chunks       []*Chunk
	appendChunks []*Chunk

	entityCount          int
	appendEntityCountMid int
	appendEntityCount    int
	chunkCount           int
	appendChunkCountMid  int
	appendChunkCount     int
	expectedCreated      int

	keys        keyPool
	removeLock  SpinLock
	removing    bitmask
	removedKeys bitmask

	disposed atomic.Bool
}

func newArchetype(scene *Scene, id int, set ComponentSet) (*Archetype, error) {
	a := &Archetype{
		id:    id,
		scene: scene,
		types: scene.ctx.types,
		pool:  scene.ctx.chunks,
		set:   set,
	}
	if id == singletonArchetypeID {
		return a, nil
	}

	a.entitySize = EntityHeaderSize + set.Size()
	if a.entitySize > ChunkSize {
		return nil, newError("create archetype", ErrCapacityExceeded,
			"records of %d bytes do not fit a chunk", a.entitySize)
	}
	a.perChunk = ChunkSize / a.entitySize

	for ct := range set.Types(a.types) {
		if _, err := a.layout.insert(ct); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ID returns the archetype id. Id 0 is the scene's singleton container.
func (a *Archetype) ID() int {
	return a.id
}

// Scene returns the owning scene.
func (a *Archetype) Scene() *Scene {
	return a.scene
}

// Set returns the component set of the archetype.
func (a *Archetype) Set() ComponentSet {
	if a.id == singletonArchetypeID {
		a.lock.Lock()
		defer a.lock.Unlock()
	}
	return a.set
}

// Types returns the component types in ascending id order.
func (a *Archetype) Types() []ComponentType {
	if a.id == singletonArchetypeID {
		a.lock.Lock()
		defer a.lock.Unlock()
	}
	return a.collectTypes()
}

func (a *Archetype) collectTypes() []ComponentType {
	types := make([]ComponentType, 0, a.set.Len())
	for ct := range a.set.Types(a.types) {
		types = append(types, ct)
	}
	return types
}

// Has reports whether the archetype contains ct.
func (a *Archetype) Has(ct ComponentType) bool {
	if a.id == singletonArchetypeID {
		a.lock.Lock()
		defer a.lock.Unlock()
	}
	return a.set.Contains(ct)
}

// OffsetOf returns the offset of ct's data from the start of a record, or
// -1 if the archetype does not contain ct.
func (a *Archetype) OffsetOf(ct ComponentType) int {
	if ct.IsNull() {
		return -1
	}
	if a.id == singletonArchetypeID {
		a.lock.Lock()
		defer a.lock.Unlock()
		return a.layout.find(ct.ID())
	}
	off := a.layout.find(ct.ID())
	if off < 0 {
		return -1
	}
	return EntityHeaderSize + off
}

// EntitySize returns the record size in bytes, header included.
func (a *Archetype) EntitySize() int {
	return a.entitySize
}

// EntitiesPerChunk returns how many records fit in one chunk.
func (a *Archetype) EntitiesPerChunk() int {
	return a.perChunk
}

// Count returns the number of committed entities.
func (a *Archetype) Count() int {
	return a.entityCount
}

// ChunkCount returns the number of committed chunks.
func (a *Archetype) ChunkCount() int {
	return a.chunkCount
}

// IsSingleton reports whether a is the scene's singleton container.
func (a *Archetype) IsSingleton() bool {
	return a.id == singletonArchetypeID
}

// WillCreate reserves storage for n more entities in the current mutation
// window. It must be called before any concurrent Create.
func (a *Archetype) WillCreate(n int) {
	if checks {
		a.checkRegular("will create")
	}
	if n < 1 {
		return
	}

	a.lock.Lock()
	a.expectedCreated += n
	target := ceilDiv(a.entityCount+a.expectedCreated, a.perChunk)

	limit := min(target, len(a.chunks))
	for a.chunkCount+a.appendChunkCountMid < limit {
		a.chunks[a.chunkCount+a.appendChunkCountMid] = a.pool.Acquire()
		a.appendChunkCountMid++
	}

	if need := target - len(a.chunks); need > len(a.appendChunks) {
		a.appendChunks = growChunkList(a.appendChunks, need)
	}
	for a.chunkCount+a.appendChunkCountMid+a.appendChunkCount < target {
		a.appendChunks[a.appendChunkCount] = a.pool.Acquire()
		a.appendChunkCount++
	}
	reserved := (a.chunkCount + a.appendChunkCountMid + a.appendChunkCount) * a.perChunk
	a.lock.Unlock()

	a.keys.reserve(reserved)
	a.removeLock.Lock()
	a.removing.grow(reserved)
	a.removeLock.Unlock()
}

// Create claims a reserved slot, assigns an inner key and returns a view
// over the zeroed record. It is safe for concurrent use. Creating more
// entities than WillCreate reserved panics with ErrCapacityExceeded.
func (a *Archetype) Create() EntityView {
	if checks {
		a.checkRegular("create")
	}

	a.lock.Lock()
	committed := (a.chunkCount + a.appendChunkCountMid) * a.perChunk
	reserved := committed + a.appendChunkCount*a.perChunk
	index := a.entityCount + a.appendEntityCountMid + a.appendEntityCount

	var chunk *Chunk
	var local int
	switch {
	case index < committed:
		local = a.entityCount + a.appendEntityCountMid
		a.appendEntityCountMid++
		chunk = a.chunks[local/a.perChunk]
	case index < reserved:
		local = a.appendEntityCount
		a.appendEntityCount++
		chunk = a.appendChunks[local/a.perChunk]
	default:
		a.lock.Unlock()
		fail("create", ErrCapacityExceeded, "archetype %d: slot %d was not reserved with WillCreate", a.id, index)
	}
	a.lock.Unlock()

	offset := (local % a.perChunk) * a.entitySize
	clear(chunk.Bytes()[offset : offset+a.entitySize])
	v := EntityView{arch: a, chunk: chunk, offset: offset, index: index}
	v.header().state.Store(a.keys.get())
	return v
}

// Remove marks the entity at index invalid and queues it for compaction at
// the next CompleteRemove. The returned view lets the caller release
// per-component resources first.
func (a *Archetype) Remove(index int) EntityView {
	if checks {
		a.checkRegular("remove")
		a.checkIndex("remove", index)
	}

	v := a.view(index)
	v.header().state.Or(headerInvalid)

	a.removeLock.Lock()
	a.removing.grow(index + 1)
	a.removing.set(index)
	a.removeLock.Unlock()
	return v
}

// RemoveEntity removes the entity identified by id. It panics with
// ErrInvalidHandle if id is stale.
func (a *Archetype) RemoveEntity(id EntityId) EntityView {
	a.resolve("remove", id)
	return a.Remove(id.Index())
}

// Get returns a view of the committed entity at index.
func (a *Archetype) Get(index int) EntityView {
	if checks {
		a.checkRegular("get")
		a.checkIndex("get", index)
	}
	return a.view(index)
}

// Lookup returns a view of the entity identified by id, or false if id does
// not name a live entity of this archetype at its recorded slot.
func (a *Archetype) Lookup(id EntityId) (EntityView, bool) {
	if id.ArchetypeId() != a.id || a.id == singletonArchetypeID {
		return EntityView{}, false
	}
	index := id.Index()
	if index < 0 || index >= a.entityCount {
		return EntityView{}, false
	}
	v := a.view(index)
	if v.Key() != id.Key() || v.IsInvalid() {
		return EntityView{}, false
	}
	return v, true
}

func (a *Archetype) resolve(op string, id EntityId) {
	if _, ok := a.Lookup(id); !ok {
		fail(op, ErrInvalidHandle, "%s is not a live entity of archetype %d", id, a.id)
	}
}

func (a *Archetype) view(index int) EntityView {
	return EntityView{
		arch:   a,
		chunk:  a.chunks[index/a.perChunk],
		offset: (index % a.perChunk) * a.entitySize,
		index:  index,
	}
}

// ChunkRange is a run of records that never crosses a chunk boundary.
type ChunkRange struct {
	Chunk      *Chunk
	ChunkStart int
	InnerStart int
	InnerEnd   int
}

// Len returns the number of records in the range.
func (r ChunkRange) Len() int {
	return r.InnerEnd - r.InnerStart
}

// Range splits the committed entities in [start, end) into per-chunk runs.
func (a *Archetype) Range(start, end int) iter.Seq[ChunkRange] {
	return func(yield func(ChunkRange) bool) {
		end := min(end, a.entityCount)
		start := max(start, 0)
		for start < end {
			ci := start / a.perChunk
			inner := start % a.perChunk
			step := min(a.perChunk-inner, end-start)
			r := ChunkRange{
				Chunk:      a.chunks[ci],
				ChunkStart: ci * a.perChunk,
				InnerStart: inner,
				InnerEnd:   inner + step,
			}
			if !yield(r) {
				return
			}
			start += step
		}
	}
}

// Entities yields views of every committed entity in slot order.
func (a *Archetype) Entities() iter.Seq[EntityView] {
	return func(yield func(EntityView) bool) {
		for r := range a.Range(0, a.entityCount) {
			for i := r.InnerStart; i < r.InnerEnd; i++ {
				v := EntityView{arch: a, chunk: r.Chunk, offset: i * a.entitySize, index: r.ChunkStart + i}
				if !yield(v) {
					return
				}
			}
		}
	}
}

// CompleteCreate makes every entity created in the current window visible
// and merges the staging chunk list into the committed one.
func (a *Archetype) CompleteCreate() {
	if a.id == singletonArchetypeID {
		return
	}

	a.expectedCreated = 0
	a.entityCount += a.appendEntityCountMid
	a.appendEntityCountMid = 0
	a.chunkCount += a.appendChunkCountMid
	a.appendChunkCountMid = 0

	if a.appendChunkCount == 0 {
		return
	}

	size := roundUp(a.chunkCount+a.appendChunkCount, chunkListGrowth)
	list := make([]*Chunk, size)
	copy(list, a.chunks[:a.chunkCount])
	copy(list[a.chunkCount:], a.appendChunks[:a.appendChunkCount])
	clear(a.appendChunks[:a.appendChunkCount])

	a.chunks = list
	a.chunkCount += a.appendChunkCount
	a.appendChunkCount = 0
	a.entityCount += a.appendEntityCount
	a.appendEntityCount = 0
}

// CompleteRemove recycles the keys removed by the previous pass, compacts
// every record removed in the current window and returns empty trailing
// chunks to the pool. It must run after CompleteCreate.
func (a *Archetype) CompleteRemove() {
	if a.id == singletonArchetypeID {
		return
	}
	if checks && a.appendEntityCountMid+a.appendEntityCount+a.appendChunkCount != 0 {
		fail("complete remove", ErrInvalidHandle, "archetype %d: creations are still pending", a.id)
	}

	for k := a.removedKeys.popLowest(); k >= 0; k = a.removedKeys.popLowest() {
		a.keys.put(uint32(k))
	}

	// Highest index first: every slot above the one being filled is already
	// compacted, so the last record is never itself pending removal.
	for index := a.removing.popHighest(); index >= 0; index = a.removing.popHighest() {
		last := a.entityCount - 1
		dst := a.view(index)
		key := dst.Key()
		if index != last {
			copy(dst.Record(), a.view(last).Record())
		}
		a.removedKeys.grow(int(key) + 1)
		a.removedKeys.set(int(key))
		a.entityCount = last
	}

	a.trim()
}

func (a *Archetype) trim() {
	expected := ceilDiv(a.entityCount, a.perChunk)
	for a.chunkCount > expected {
		i := a.chunkCount - 1
		a.pool.Release(a.chunks[i])
		a.chunks[i] = nil
		a.chunkCount = i
	}
}

// PendingRemovals returns the number of records queued for compaction plus
// the keys waiting to be recycled.
func (a *Archetype) PendingRemovals() int {
	a.removeLock.Lock()
	n := a.removing.count
	a.removeLock.Unlock()
	return n + a.removedKeys.count
}

// RemovedEntities yields the ids of entities compacted by the most recent
// CompleteRemove. Their keys are recycled by the following one.
func (a *Archetype) RemovedEntities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		a.removedKeys.each(func(k int) bool {
			return yield(NewEntityId(a.id, uint32(k), -1))
		})
	}
}

// dispose returns every chunk to the pool. The archetype must not be used
// afterwards.
func (a *Archetype) dispose() {
	a.lock.Lock()
	defer a.lock.Unlock()

	for i := range a.chunkCount + a.appendChunkCountMid {
		a.pool.Release(a.chunks[i])
	}
	for i := range a.appendChunkCount {
		a.pool.Release(a.appendChunks[i])
	}
	a.chunks, a.appendChunks = nil, nil
	a.entityCount, a.appendEntityCountMid, a.appendEntityCount = 0, 0, 0
	a.chunkCount, a.appendChunkCountMid, a.appendChunkCount = 0, 0, 0
	a.expectedCreated = 0
	a.keys.reset()
	a.removing.clear()
	a.removedKeys.clear()
	a.disposed.Store(true)
}

func (a *Archetype) checkRegular(op string) {
	if a.disposed.Load() {
		fail(op, ErrInvalidHandle, "archetype %d was disposed", a.id)
	}
	if a.id == singletonArchetypeID {
		fail(op, ErrModeConflict, "the singleton container has no entities")
	}
}

func (a *Archetype) checkIndex(op string, index int) {
	if index < 0 || index >= a.entityCount {
		fail(op, ErrInvalidHandle, "index %d out of range [0, %d)", index, a.entityCount)
	}
}

func growChunkList(list []*Chunk, n int) []*Chunk {
	grown := make([]*Chunk, roundUp(n, chunkListGrowth))
	copy(grown, list)
	return grown
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func roundUp(n, multiple int) int {
	return ceilDiv(n, multiple) * multiple
}
