package ecs

// ArchetypeSnapshot is a read-only picture of an archetype taken by Inspect.
type ArchetypeSnapshot struct {
	ID               int
	Components       []string
	Types            []ComponentType
	EntitySize       int
	EntitiesPerChunk int
	Chunks           int
	StagedChunks     int

	// Live holds committed entities, including those removed in the current
	// window. PendingRemoval lists the latter again.
	Live           []EntityId
	Staged         []EntityId
	PendingRemoval []EntityId

	// Removed holds the entities compacted by the most recent completion
	// pass. Their ids carry no index.
	Removed []EntityId
}

// Inspect captures the archetype's entities and chunk usage. It must not
// run concurrently with a completion pass. On the singleton container it
// may run alongside singleton creation.
func (a *Archetype) Inspect() ArchetypeSnapshot {
	a.lock.Lock()
	defer a.lock.Unlock()

	snap := ArchetypeSnapshot{
		ID:               a.id,
		Components:       a.set.Names(a.types),
		Types:            a.collectTypes(),
		EntitySize:       a.entitySize,
		EntitiesPerChunk: a.perChunk,
	}
	if a.id == singletonArchetypeID {
		snap.Chunks = len(a.chunks)
		return snap
	}

	snap.Chunks = a.chunkCount
	snap.StagedChunks = a.appendChunkCountMid + a.appendChunkCount

	snap.Live = make([]EntityId, 0, a.entityCount)
	for v := range a.Entities() {
		id := v.Id()
		snap.Live = append(snap.Live, id)
		if v.IsInvalid() {
			snap.PendingRemoval = append(snap.PendingRemoval, id)
		}
	}

	for i := range a.appendEntityCountMid {
		index := a.entityCount + i
		snap.Staged = append(snap.Staged, a.stagedID(a.chunks[index/a.perChunk], index%a.perChunk, index))
	}
	committed := (a.chunkCount + a.appendChunkCountMid) * a.perChunk
	for local := range a.appendEntityCount {
		snap.Staged = append(snap.Staged, a.stagedID(a.appendChunks[local/a.perChunk], local%a.perChunk, committed+local))
	}

	for id := range a.RemovedEntities() {
		snap.Removed = append(snap.Removed, id)
	}
	return snap
}

func (a *Archetype) stagedID(chunk *Chunk, inner, index int) EntityId {
	h := (*entityHeader)(chunk.at(inner * a.entitySize))
	return NewEntityId(a.id, h.key(), index)
}

// ArchetypeStats summarizes one archetype.
type ArchetypeStats struct {
	ID          int
	Components  []string
	EntityCount int
	ChunkCount  int
	EntitySize  int
	Capacity    int
	Utilization float64
}

// SceneStats summarizes a scene.
type SceneStats struct {
	Scene          int
	ArchetypeCount int
	EntityCount    int
	SingletonCount int
	ChunkCount     int
	MemoryBytes    int
	RefCount       int
	Pool           ChunkPoolStats
	Archetypes     []ArchetypeStats
}

// Stats returns aggregate statistics of the scene.
func (s *Scene) Stats() SceneStats {
	stats := SceneStats{
		Scene:          s.index,
		ArchetypeCount: s.ArchetypeCount(),
		RefCount:       s.refs.Len(),
		Pool:           s.ctx.chunks.Stats(),
	}

	singletons := s.Singletons()
	singletons.lock.Lock()
	stats.SingletonCount = singletons.entityCount
	stats.ChunkCount = len(singletons.chunks)
	singletons.lock.Unlock()

	for a := range s.Archetypes() {
		as := ArchetypeStats{
			ID:          a.id,
			Components:  a.set.Names(s.ctx.types),
			EntityCount: a.Count(),
			ChunkCount:  a.ChunkCount(),
			EntitySize:  a.entitySize,
		}
		as.Capacity = as.ChunkCount * a.perChunk
		if as.Capacity > 0 {
			as.Utilization = float64(as.EntityCount) / float64(as.Capacity)
		}
		stats.EntityCount += as.EntityCount
		stats.ChunkCount += as.ChunkCount
		stats.Archetypes = append(stats.Archetypes, as)
	}
	stats.MemoryBytes = stats.ChunkCount * ChunkSize
	return stats
}
