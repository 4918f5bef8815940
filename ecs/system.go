package ecs

// System represents a behavior that operates on entities with specific
// components. Systems can hold View, Singleton and Query-building state in
// fields; fields whose address implements Initializer are bound to the scene
// when the system is registered with a Runner.
type System interface {
	Execute(frame *UpdateFrame)
}

// Starter is implemented by systems that need a hook before their first
// Execute.
type Starter interface {
	Start(frame *UpdateFrame)
}

// Initializer is implemented by system fields that must be bound to a scene,
// such as *View[T] and *Singleton[T].
type Initializer interface {
	Init(scene *Scene) error
}
