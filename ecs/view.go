package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"unsafe"
)

// View gives struct-of-pointers access to entities with a specific
// combination of components. T must be a struct whose fields are pointers to
// registered component types. Embedded fields are always required; named
// fields can be marked optional with the `ecs:"optional"` struct tag and are
// left nil when the entity lacks the component.
type View[T any] struct {
	scene    *Scene
	fields   []viewField
	required ComponentSet
}

type viewField struct {
	ct       ComponentType
	offset   uintptr
	size     uintptr
	optional bool
}

// NewView creates a view of T over scene.
func NewView[T any](scene *Scene) (*View[T], error) {
	v := &View[T]{}
	if err := v.Init(scene); err != nil {
		return nil, err
	}
	return v, nil
}

// MustView is like NewView but panics on error.
func MustView[T any](scene *Scene) *View[T] {
	v, err := NewView[T](scene)
	if err != nil {
		panic(err)
	}
	return v
}

// Init binds the view to scene, registering the component type of every
// field. Runner.Register calls it for View fields of a system.
func (v *View[T]) Init(scene *Scene) error {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		return newError("view", ErrTypeMismatch, "%v is not a struct", structType)
	}

	fields := make([]viewField, 0, structType.NumField())
	var required ComponentSet
	for i := range structType.NumField() {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Pointer {
			return newError("view", ErrTypeMismatch, "field %s of %v is not a pointer", field.Name, structType)
		}

		optional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				optional = true
			default:
				return newError("view", ErrTypeMismatch, "invalid ecs tag value %q on field %s (only \"optional\" is supported)", tag, field.Name)
			}
		}

		ct, err := scene.ctx.types.Register(field.Type.Elem())
		if err != nil {
			return fmt.Errorf("view field %s: %w", field.Name, err)
		}
		if ct.Mode() == ModeSingleton {
			return newError("view", ErrModeConflict, "field %s is a singleton component", field.Name)
		}
		if !optional {
			if err := required.Combine(ct); err != nil {
				return err
			}
		}
		fields = append(fields, viewField{ct: ct, offset: field.Offset, size: field.Type.Elem().Size(), optional: optional})
	}
	if required.IsEmpty() {
		return newError("view", ErrInvalidHandle, "%v has no required component", structType)
	}

	v.scene = scene
	v.fields = fields
	v.required = required
	return nil
}

// Required returns the set of required component types.
func (v *View[T]) Required() ComponentSet {
	return v.required
}

// Query returns a query over the required component types.
func (v *View[T]) Query() (*Query, error) {
	types := make([]ComponentType, 0, len(v.fields))
	for _, f := range v.fields {
		if !f.optional {
			types = append(types, f.ct)
		}
	}
	return v.scene.Query(types...)
}

// Fill populates ptr with pointers into e's record. It returns false if the
// entity is missing a required component.
func (v *View[T]) Fill(e EntityView, ptr *T) bool {
	if e.IsZero() {
		return false
	}
	structPtr := unsafe.Pointer(ptr)
	for _, f := range v.fields {
		fieldPtr := (*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
		off := e.arch.OffsetOf(f.ct)
		if off < 0 {
			if !f.optional {
				return false
			}
			*fieldPtr = nil
			continue
		}
		*fieldPtr = e.chunk.at(e.offset + off)
	}
	return true
}

// FillResult is Fill for the entity a query callback is visiting.
func (v *View[T]) FillResult(r *QueryResult, ptr *T) bool {
	return v.Fill(r.View(), ptr)
}

// Get returns a populated view of the entity identified by id, or nil if the
// id is stale or the entity lacks a required component.
func (v *View[T]) Get(id EntityId) *T {
	e, ok := v.scene.Lookup(id)
	if !ok {
		return nil
	}
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter yields every committed entity having the required components along
// with its populated view.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		offsets := make([]int, len(v.fields))
		for a := range v.scene.Supersets(v.required) {
			if a.Count() == 0 {
				continue
			}
			for i, f := range v.fields {
				offsets[i] = a.OffsetOf(f.ct)
			}

			var result T
			resultPtr := unsafe.Pointer(&result)
			for r := range a.Range(0, a.Count()) {
				for inner := r.InnerStart; inner < r.InnerEnd; inner++ {
					record := inner * a.entitySize
					for i, f := range v.fields {
						fieldPtr := (*unsafe.Pointer)(unsafe.Add(resultPtr, f.offset))
						if offsets[i] < 0 {
							*fieldPtr = nil
							continue
						}
						*fieldPtr = r.Chunk.at(record + offsets[i])
					}
					h := (*entityHeader)(r.Chunk.at(record))
					if !yield(NewEntityId(a.id, h.key(), r.ChunkStart+inner), result) {
						return
					}
				}
			}
		}
	}
}

// Values yields the populated views without their entity ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity from the non-nil fields of data. Nil optional
// fields are left out of the archetype. The entity becomes visible at the
// next completion pass.
func (v *View[T]) Spawn(data T) (EntityView, error) {
	structPtr := unsafe.Pointer(&data)

	var set ComponentSet
	for _, f := range v.fields {
		src := *(*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
		if src == nil {
			if !f.optional {
				return EntityView{}, newError("spawn", ErrInvalidHandle, "required %s is nil", f.ct)
			}
			continue
		}
		if err := set.Combine(f.ct); err != nil {
			return EntityView{}, err
		}
	}

	a, err := v.scene.Archetype(set)
	if err != nil {
		return EntityView{}, err
	}
	a.WillCreate(1)
	e := a.Create()
	for _, f := range v.fields {
		src := *(*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
		if src == nil {
			continue
		}
		copy(e.Bytes(f.ct), unsafe.Slice((*byte)(src), f.size))
	}
	return e, nil
}
