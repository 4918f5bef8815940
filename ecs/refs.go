package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// Ref is a small integer handle to a Go value held outside chunk memory.
// Components store Refs where they need a pointer, slice, string or func.
// The zero Ref is null.
type Ref uint32

// MaxRefs is the number of live handles a RefTable can hold.
const MaxRefs = 1<<16 - 1

// RefTable maps Refs to values. Handles released during a frame become
// reusable after the next Complete, so ids read earlier in the frame never
// alias a new value.
type RefTable struct {
	lock     SpinLock
	values   *intmap.Map[Ref, any]
	pointers map[any]Ref
	free     bitmask
	released []Ref
	next     Ref
}

// NewRefTable creates an empty table.
func NewRefTable() *RefTable {
	return &RefTable{
		values:   intmap.New[Ref, any](64),
		pointers: make(map[any]Ref),
	}
}

// Add stores v and returns its handle. Adding the same pointer twice returns
// the same handle.
func (t *RefTable) Add(v any) Ref {
	t.lock.Lock()
	defer t.lock.Unlock()

	byPointer := v != nil && reflect.TypeOf(v).Kind() == reflect.Pointer
	if byPointer {
		if r, ok := t.pointers[v]; ok {
			return r
		}
	}

	var r Ref
	if k := t.free.popLowest(); k >= 0 {
		r = Ref(k + 1)
	} else {
		if t.next >= MaxRefs {
			fail("add ref", ErrCapacityExceeded, "reference table holds %d values", MaxRefs)
		}
		t.next++
		r = t.next
	}

	t.values.Put(r, v)
	if byPointer {
		t.pointers[v] = r
	}
	return r
}

// Get returns the value behind r.
func (t *RefTable) Get(r Ref) (any, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.values.Get(r)
}

// Release drops the value behind r. The handle is recycled after Complete.
func (t *RefTable) Release(r Ref) {
	t.lock.Lock()
	defer t.lock.Unlock()

	v, ok := t.values.Get(r)
	if !ok {
		return
	}
	t.values.Del(r)
	if p, ok := t.pointers[v]; ok && p == r {
		delete(t.pointers, v)
	}
	t.released = append(t.released, r)
}

// Complete makes handles released since the previous call reusable.
func (t *RefTable) Complete() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, r := range t.released {
		t.free.grow(int(r))
		t.free.set(int(r) - 1)
	}
	t.released = t.released[:0]
}

// Len returns the number of live handles.
func (t *RefTable) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.values.Len()
}

// Clear drops every value and handle.
func (t *RefTable) Clear() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.values.Clear()
	clear(t.pointers)
	t.free.clear()
	t.released = t.released[:0]
	t.next = 0
}

// RefOf is a Ref known to hold a T.
type RefOf[T any] Ref

// AddRef stores v in t and returns a typed handle.
func AddRef[T any](t *RefTable, v T) RefOf[T] {
	return RefOf[T](t.Add(v))
}

// Resolve returns the value behind r.
func (r RefOf[T]) Resolve(t *RefTable) (T, bool) {
	v, ok := t.Get(Ref(r))
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Release drops the value behind r.
func (r RefOf[T]) Release(t *RefTable) {
	t.Release(Ref(r))
}
