package ecs

import (
	"fmt"
	"sync/atomic"
)

// EntityId identifies an entity.
//
//	bits [0,31)  slot index when the id was produced (all ones if unknown)
//	bits [31,54) inner key
//	bits [54,64) archetype id
//
// The archetype id and inner key stay valid until the key is recycled. The
// slot index is only meaningful until the next completion pass.
type EntityId uint64

const (
	idIndexBits      = 31
	idIndexMask      = 1<<idIndexBits - 1
	idKeyShift       = idIndexBits
	idArchetypeShift = idKeyShift + innerKeyBits
	idArchetypeMask  = 1<<10 - 1
)

// NewEntityId packs an entity id. A negative index records that the slot is
// unknown.
func NewEntityId(archetypeId int, key uint32, index int) EntityId {
	idx := uint64(idIndexMask)
	if index >= 0 {
		idx = uint64(index) & idIndexMask
	}
	return EntityId(uint64(archetypeId&idArchetypeMask)<<idArchetypeShift |
		uint64(key&MaxInnerKey)<<idKeyShift | idx)
}

// ArchetypeId extracts the archetype id.
func (e EntityId) ArchetypeId() int {
	return int(e>>idArchetypeShift) & idArchetypeMask
}

// Key extracts the inner key.
func (e EntityId) Key() uint32 {
	return uint32(e>>idKeyShift) & MaxInnerKey
}

// Index extracts the slot index, or -1 if unknown.
func (e EntityId) Index() int {
	idx := int(e & idIndexMask)
	if idx == idIndexMask {
		return -1
	}
	return idx
}

// Identity returns e with the slot index cleared, for use as a map key.
func (e EntityId) Identity() EntityId {
	return e | idIndexMask
}

// IsNull reports whether e is the zero id.
func (e EntityId) IsNull() bool {
	return e == 0
}

func (e EntityId) String() string {
	if e.Index() < 0 {
		return fmt.Sprintf("%d:%d", e.ArchetypeId(), e.Key())
	}
	return fmt.Sprintf("%d:%d@%d", e.ArchetypeId(), e.Key(), e.Index())
}

// entityHeader is the first word of every entity record.
type entityHeader struct {
	lock  atomic.Int32
	state atomic.Uint32 // bit 31 invalid, bits [0,31) inner key
}

const headerInvalid = 1 << 31

func (h *entityHeader) key() uint32 {
	return h.state.Load() & MaxInnerKey
}

func (h *entityHeader) invalid() bool {
	return h.state.Load()&headerInvalid != 0
}

func (h *entityHeader) spinLock() {
	for !h.lock.CompareAndSwap(0, 1) {
	}
}

func (h *entityHeader) spinUnlock() {
	h.lock.Store(0)
}
