package ecs

import (
	"reflect"
	"unsafe"
)

// Converter turns a foreign Go value into one component of an entity.
// Converters let callers build entities from existing objects without the
// object types themselves being components.
type Converter interface {
	// Source returns the foreign type the converter accepts.
	Source() reflect.Type
	// Target returns the component type the converter writes.
	Target() reflect.Type
	// Convert writes the component converted from src to dst, which points
	// at zeroed component storage.
	Convert(src any, dst unsafe.Pointer)
}

type converterFunc[S, D any] func(S, *D)

func (f converterFunc[S, D]) Source() reflect.Type { return reflect.TypeFor[S]() }
func (f converterFunc[S, D]) Target() reflect.Type { return reflect.TypeFor[D]() }

func (f converterFunc[S, D]) Convert(src any, dst unsafe.Pointer) {
	f(src.(S), (*D)(dst))
}

// ConverterFunc adapts fn into a Converter from S to the component D.
func ConverterFunc[S, D any](fn func(S, *D)) Converter {
	return converterFunc[S, D](fn)
}

type boundConverter struct {
	conv Converter
	ct   ComponentType
}

// Converters maps foreign types to the converters that accept them. Several
// converters may share a source type, each writing a different component.
// Registration is not safe for concurrent use with conversion.
type Converters struct {
	types    *TypeRegistry
	bySource map[reflect.Type][]boundConverter
}

// NewConverters creates an empty converter registry resolving component
// types through r.
func NewConverters(r *TypeRegistry) *Converters {
	return &Converters{
		types:    r,
		bySource: make(map[reflect.Type][]boundConverter),
	}
}

// Register adds conv. Its target must be an instance component.
func (c *Converters) Register(conv Converter) error {
	ct, err := c.types.Register(conv.Target())
	if err != nil {
		return err
	}
	if ct.Mode() != ModeInstance {
		return newError("register converter", ErrModeConflict, "%v is not an instance component", conv.Target())
	}
	src := conv.Source()
	for _, b := range c.bySource[src] {
		if b.ct == ct {
			return newError("register converter", ErrTypeMismatch, "%v already converts to %v", src, conv.Target())
		}
	}
	c.bySource[src] = append(c.bySource[src], boundConverter{conv: conv, ct: ct})
	return nil
}

// RegisterConverter registers fn as the converter from S to the component D.
func RegisterConverter[S, D any](c *Converters, fn func(S, *D)) error {
	return c.Register(ConverterFunc(fn))
}

// Set returns the component set the converters of sources produce. Sources
// without a converter are ignored.
func (c *Converters) Set(sources ...any) (ComponentSet, error) {
	var set ComponentSet
	for _, src := range sources {
		for _, b := range c.bySource[reflect.TypeOf(src)] {
			if err := set.Combine(b.ct); err != nil {
				return ComponentSet{}, err
			}
		}
	}
	return set, nil
}

// Stage runs the converters of src against the record of v. It fails with
// ErrTypeMismatch if no converter accepts src or the archetype of v lacks a
// converted component.
func (c *Converters) Stage(v EntityView, src any) error {
	bound := c.bySource[reflect.TypeOf(src)]
	if len(bound) == 0 {
		return newError("convert", ErrTypeMismatch, "no converter accepts %T", src)
	}
	for _, b := range bound {
		off, ok := v.Offset(b.ct)
		if !ok {
			return newError("convert", ErrTypeMismatch, "archetype %d has no %v", v.arch.id, b.conv.Target())
		}
		b.conv.Convert(src, v.chunk.at(v.offset+off))
	}
	return nil
}

// Convert creates one entity in scene built from every source. The archetype
// is the union of the converted components. The entity becomes visible at
// the next completion pass.
func (c *Converters) Convert(scene *Scene, sources ...any) (EntityView, error) {
	for _, src := range sources {
		if len(c.bySource[reflect.TypeOf(src)]) == 0 {
			return EntityView{}, newError("convert", ErrTypeMismatch, "no converter accepts %T", src)
		}
	}
	set, err := c.Set(sources...)
	if err != nil {
		return EntityView{}, err
	}
	a, err := scene.Archetype(set)
	if err != nil {
		return EntityView{}, err
	}

	a.WillCreate(1)
	v := a.Create()
	for _, src := range sources {
		if err := c.Stage(v, src); err != nil {
			return v, err
		}
	}
	return v, nil
}
