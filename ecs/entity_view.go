package ecs

import (
	"reflect"
	"unsafe"
)

// EntityView is a writable window onto one entity record. It stays valid
// until the next completion pass of its archetype.
type EntityView struct {
	arch   *Archetype
	chunk  *Chunk
	offset int
	index  int
}

// IsZero reports whether v refers to no entity.
func (v EntityView) IsZero() bool {
	return v.arch == nil
}

// Archetype returns the archetype holding the entity.
func (v EntityView) Archetype() *Archetype {
	return v.arch
}

// Index returns the slot index of the entity.
func (v EntityView) Index() int {
	return v.index
}

func (v EntityView) header() *entityHeader {
	return (*entityHeader)(v.chunk.at(v.offset))
}

// Key returns the inner key of the entity.
func (v EntityView) Key() uint32 {
	return v.header().key()
}

// Id returns the id of the entity.
func (v EntityView) Id() EntityId {
	return NewEntityId(v.arch.id, v.Key(), v.index)
}

// IsInvalid reports whether the entity was removed in this mutation window.
func (v EntityView) IsInvalid() bool {
	return v.header().invalid()
}

// Lock acquires the per-entity spinlock stored in the record header.
func (v EntityView) Lock() {
	v.header().spinLock()
}

// Unlock releases the per-entity spinlock.
func (v EntityView) Unlock() {
	v.header().spinUnlock()
}

// Has reports whether the entity's archetype contains ct.
func (v EntityView) Has(ct ComponentType) bool {
	return v.arch.set.Contains(ct)
}

// Offset returns the byte offset of ct's data from the start of the record.
func (v EntityView) Offset(ct ComponentType) (int, bool) {
	off := v.arch.layout.find(ct.ID())
	if off < 0 || ct.IsNull() {
		return 0, false
	}
	return EntityHeaderSize + off, true
}

// Pointer returns the address of ct's data. It panics with ErrTypeMismatch if
// the archetype does not contain ct.
func (v EntityView) Pointer(ct ComponentType) unsafe.Pointer {
	off, ok := v.Offset(ct)
	if !ok {
		fail("component", ErrTypeMismatch, "archetype %d has no %s", v.arch.id, ct)
	}
	return v.chunk.at(v.offset + off)
}

// Bytes returns ct's data.
func (v EntityView) Bytes(ct ComponentType) []byte {
	return unsafe.Slice((*byte)(v.Pointer(ct)), ct.Size())
}

// Record returns the whole record, header included.
func (v EntityView) Record() []byte {
	return v.chunk.Bytes()[v.offset : v.offset+v.arch.entitySize]
}

// Get returns a pointer to the T component of v, resolving T through the
// type registry. It panics with ErrTypeMismatch if the entity has no T.
func Get[T any](v EntityView) *T {
	ct := MustTypeOf[T](v.arch.types)
	return (*T)(v.Pointer(ct))
}

// GetAs is like Get for a ComponentType resolved ahead of time.
func GetAs[T any](v EntityView, ct ComponentType) *T {
	if checks {
		checkGoType[T](v.arch.types, ct, "component")
	}
	return (*T)(v.Pointer(ct))
}

// Set stores value as the T component of v.
func Set[T any](v EntityView, value T) {
	*Get[T](v) = value
}

func checkGoType[T any](r *TypeRegistry, ct ComponentType, op string) {
	if t := r.ReflectType(ct); t != reflect.TypeFor[T]() {
		fail(op, ErrTypeMismatch, "%s is %v, not %v", ct, t, reflect.TypeFor[T]())
	}
}
