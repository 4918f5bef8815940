package ecs

import (
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"sync/atomic"
)

var singletonComponentType = reflect.TypeFor[SingletonComponent]()

type typeEntry struct {
	key   uintptr
	rtype reflect.Type
	ct    ComponentType
}

// TypeRegistry assigns a dense id, aligned size and mode to every component
// type on first use. Lookups of already registered types take no lock.
type TypeRegistry struct {
	lock       SpinLock
	slots      [MaxComponentTypes]atomic.Pointer[typeEntry]
	byID       [MaxComponentTypes]atomic.Pointer[typeEntry]
	count      atomic.Int32
	generation atomic.Uint32
	logger     *slog.Logger
}

// NewTypeRegistry creates an empty registry. A nil logger discards output.
func NewTypeRegistry(logger *slog.Logger) *TypeRegistry {
	if logger == nil {
		logger = discardLogger()
	}
	return &TypeRegistry{logger: logger}
}

// Register returns the ComponentType for t, assigning the next id if t has
// not been seen before.
func (r *TypeRegistry) Register(t reflect.Type) (ComponentType, error) {
	if t == nil {
		return 0, newError("register type", ErrTypeMismatch, "nil type")
	}

	key := typeKey(t)
	if ct, ok := r.find(key); ok {
		return ct, nil
	}

	if err := checkPlainData(t, t.String()); err != nil {
		return 0, err
	}
	size := alignUp(int(t.Size()))
	if size > ChunkSize-EntityHeaderSize {
		return 0, newError("register type", ErrCapacityExceeded,
			"%s is %d bytes, limit is %d", t, size, ChunkSize-EntityHeaderSize)
	}
	mode := ModeInstance
	if t.Implements(singletonComponentType) {
		mode = ModeSingleton
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if ct, ok := r.find(key); ok {
		return ct, nil
	}

	id := int(r.count.Load())
	if id >= MaxComponentTypes {
		return 0, newError("register type", ErrCapacityExceeded,
			"%s: registry holds %d types", t, MaxComponentTypes)
	}

	entry := &typeEntry{key: key, rtype: t, ct: newComponentType(id, size, mode)}
	slot := typeSlot(key, MaxComponentTypes)
	for r.slots[slot].Load() != nil {
		slot = (slot + 1) & (MaxComponentTypes - 1)
	}
	r.byID[id].Store(entry)
	r.slots[slot].Store(entry)
	r.count.Store(int32(id + 1))

	r.logger.Debug("component type registered", "type", t.String(), "id", id, "size", size, "mode", mode.String())
	return entry.ct, nil
}

func (r *TypeRegistry) find(key uintptr) (ComponentType, bool) {
	slot := typeSlot(key, MaxComponentTypes)
	for range MaxComponentTypes {
		e := r.slots[slot].Load()
		if e == nil {
			return 0, false
		}
		if e.key == key {
			return e.ct, true
		}
		slot = (slot + 1) & (MaxComponentTypes - 1)
	}
	return 0, false
}

// Lookup returns the registration for id.
func (r *TypeRegistry) Lookup(id int) (ComponentType, reflect.Type, bool) {
	if id < 0 || id >= MaxComponentTypes {
		return 0, nil, false
	}
	e := r.byID[id].Load()
	if e == nil {
		return 0, nil, false
	}
	return e.ct, e.rtype, true
}

// ReflectType returns the Go type registered as ct, or nil.
func (r *TypeRegistry) ReflectType(ct ComponentType) reflect.Type {
	_, t, ok := r.Lookup(ct.ID())
	if !ok {
		return nil
	}
	return t
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int {
	return int(r.count.Load())
}

// All yields every registration in id order.
func (r *TypeRegistry) All() iter.Seq2[ComponentType, reflect.Type] {
	return func(yield func(ComponentType, reflect.Type) bool) {
		n := r.Len()
		for id := range n {
			e := r.byID[id].Load()
			if e == nil {
				continue
			}
			if !yield(e.ct, e.rtype) {
				return
			}
		}
	}
}

// Reset forgets every registration. ComponentTypes handed out before the
// reset must not be used afterwards; TypeCache values revalidate themselves.
func (r *TypeRegistry) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i := range r.slots {
		r.slots[i].Store(nil)
		r.byID[i].Store(nil)
	}
	r.count.Store(0)
	r.generation.Add(1)
	r.logger.Debug("type registry reset")
}

// TypeOf registers T with r and returns its ComponentType.
func TypeOf[T any](r *TypeRegistry) (ComponentType, error) {
	return r.Register(reflect.TypeFor[T]())
}

// MustTypeOf is like TypeOf but panics on error.
func MustTypeOf[T any](r *TypeRegistry) ComponentType {
	ct, err := TypeOf[T](r)
	if err != nil {
		panic(err)
	}
	return ct
}

// TypeCache memoizes the ComponentType of T so hot code can skip the
// registry table. A cache must only be used with one registry.
type TypeCache[T any] struct {
	packed atomic.Uint64
}

// Get returns the ComponentType of T, registering it on first use.
func (c *TypeCache[T]) Get(r *TypeRegistry) ComponentType {
	gen := r.generation.Load() + 1
	p := c.packed.Load()
	if uint32(p>>32) == gen {
		return ComponentType(uint32(p))
	}
	ct := MustTypeOf[T](r)
	c.packed.Store(uint64(gen)<<32 | uint64(ct))
	return ct
}

// checkPlainData rejects types whose values hold Go pointers, since records
// live in chunk memory the garbage collector does not scan.
func checkPlainData(t reflect.Type, path string) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return checkPlainData(t.Elem(), path+"[]")
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if err := checkPlainData(f.Type, path+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	default:
		return newError("register type", ErrTypeMismatch,
			"%s has kind %s, component data must not hold references", path, t.Kind())
	}
}

// String describes the registry for logs.
func (r *TypeRegistry) String() string {
	return fmt.Sprintf("TypeRegistry(%d types)", r.Len())
}
