package ecs

import (
	"sync/atomic"
	"unsafe"
)

// Chunk is a fixed block of entity records. The backing array is made of
// words so records can be read as 8-byte aligned values.
type Chunk struct {
	words [ChunkSize / 8]uint64
}

// Bytes returns the chunk memory.
func (c *Chunk) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&c.words[0])), ChunkSize)
}

func (c *Chunk) at(offset int) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(&c.words[0]), offset)
}

// ChunkPoolStats counts chunk pool traffic.
type ChunkPoolStats struct {
	Pooled    int
	Capacity  int
	Allocated int64
	Reused    int64
	Released  int64
	Dropped   int64
}

// ChunkPool is a bounded free list of chunks shared by every archetype of a
// Context.
type ChunkPool struct {
	lock     SpinLock
	free     []*Chunk
	capacity int

	allocated atomic.Int64
	reused    atomic.Int64
	released  atomic.Int64
	dropped   atomic.Int64
}

// NewChunkPool creates a pool that retains at most capacity free chunks.
func NewChunkPool(capacity int) *ChunkPool {
	if capacity < 0 {
		capacity = 0
	}
	return &ChunkPool{
		free:     make([]*Chunk, 0, capacity),
		capacity: capacity,
	}
}

// Acquire returns a pooled chunk or allocates a new one. Pooled chunks keep
// their previous contents.
func (p *ChunkPool) Acquire() *Chunk {
	p.lock.Lock()
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.lock.Unlock()
		p.reused.Add(1)
		return c
	}
	p.lock.Unlock()

	p.allocated.Add(1)
	return new(Chunk)
}

// Release hands c back to the pool, dropping it when the pool is full.
func (p *ChunkPool) Release(c *Chunk) {
	if c == nil {
		return
	}
	p.lock.Lock()
	if len(p.free) < p.capacity {
		p.free = append(p.free, c)
		p.lock.Unlock()
		p.released.Add(1)
		return
	}
	p.lock.Unlock()
	p.dropped.Add(1)
}

// Len returns the number of pooled chunks.
func (p *ChunkPool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.free)
}

// Stats returns a snapshot of the pool counters.
func (p *ChunkPool) Stats() ChunkPoolStats {
	return ChunkPoolStats{
		Pooled:    p.Len(),
		Capacity:  p.capacity,
		Allocated: p.allocated.Load(),
		Reused:    p.reused.Load(),
		Released:  p.released.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// Reset drops every pooled chunk.
func (p *ChunkPool) Reset() {
	p.lock.Lock()
	clear(p.free)
	p.free = p.free[:0]
	p.lock.Unlock()
}
