package ecs

import "fmt"

// ComponentMode tells whether a component type lives once per entity or once
// per scene.
type ComponentMode uint8

const (
	ModeNone ComponentMode = iota
	ModeInstance
	ModeSingleton
)

func (m ComponentMode) String() string {
	switch m {
	case ModeInstance:
		return "instance"
	case ModeSingleton:
		return "singleton"
	default:
		return "none"
	}
}

// SingletonComponent is implemented by component types that exist at most
// once per scene. Embed SingletonTag as the first field to implement it.
type SingletonComponent interface {
	singletonComponent()
}

// SingletonTag marks the embedding struct as a singleton component.
type SingletonTag struct{}

func (SingletonTag) singletonComponent() {}

// ComponentType is the packed description of a registered component type.
//
//	bits [0,9)   id+1 (0 is the null type)
//	bits [9,24)  size in bytes, a multiple of 8
//	bits [24,26) mode
type ComponentType uint32

const (
	ctIDMask    = 1<<9 - 1
	ctSizeShift = 9
	ctSizeMask  = 1<<15 - 1
	ctModeShift = 24
	ctModeMask  = 3
)

func newComponentType(id, size int, mode ComponentMode) ComponentType {
	return ComponentType(uint32(id+1) | uint32(size)<<ctSizeShift | uint32(mode)<<ctModeShift)
}

// ID returns the registry id, or -1 for the null type.
func (c ComponentType) ID() int {
	return int(c&ctIDMask) - 1
}

// Size returns the aligned size in bytes.
func (c ComponentType) Size() int {
	return int(c>>ctSizeShift) & ctSizeMask
}

// Mode returns whether the type is an instance or singleton component.
func (c ComponentType) Mode() ComponentMode {
	return ComponentMode(c>>ctModeShift) & ctModeMask
}

// IsNull reports whether c is the zero ComponentType.
func (c ComponentType) IsNull() bool {
	return c&ctIDMask == 0
}

func (c ComponentType) String() string {
	if c.IsNull() {
		return "component(null)"
	}
	return fmt.Sprintf("component#%d(%dB,%s)", c.ID(), c.Size(), c.Mode())
}
