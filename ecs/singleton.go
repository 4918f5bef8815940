package ecs

import "unsafe"

// SingletonRef addresses one singleton component inside a scene's singleton
// container.
type SingletonRef struct {
	chunk  *Chunk
	offset int
	ct     ComponentType
}

// IsZero reports whether r addresses nothing.
func (r SingletonRef) IsZero() bool {
	return r.chunk == nil
}

// Type returns the component type r addresses.
func (r SingletonRef) Type() ComponentType {
	return r.ct
}

// Pointer returns the address of the component data.
func (r SingletonRef) Pointer() unsafe.Pointer {
	return r.chunk.at(r.offset)
}

// Bytes returns the component data.
func (r SingletonRef) Bytes() []byte {
	return r.chunk.Bytes()[r.offset : r.offset+r.ct.Size()]
}

// singleton returns the storage of ct in the singleton container, adding
// and zeroing it on first use.
func (a *Archetype) singleton(ct ComponentType) (SingletonRef, bool, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	set := a.set
	if err := set.Combine(ct); err != nil {
		return SingletonRef{}, false, err
	}
	if ct.IsNull() || set.Mode() != ModeSingleton {
		return SingletonRef{}, false, newError("singleton", ErrModeConflict, "%s is not a singleton component", ct)
	}

	offset, added, err := a.layout.tryAdd(ct)
	if err != nil {
		return SingletonRef{}, false, err
	}
	ci := offset / ChunkSize
	for len(a.chunks) <= ci {
		a.chunks = append(a.chunks, a.pool.Acquire())
		a.chunkCount++
	}

	ref := SingletonRef{chunk: a.chunks[ci], offset: offset % ChunkSize, ct: ct}
	if added {
		clear(ref.Bytes())
		a.set = set
		a.entityCount++
	}
	return ref, added, nil
}

// Singleton provides access to the single instance of T in a scene. T must
// embed SingletonTag.
type Singleton[T any] struct {
	ref SingletonRef
}

// NewSingleton returns the accessor for T in scene, creating the singleton
// from initializer, or zeroed, if it does not exist yet.
func NewSingleton[T any](scene *Scene, initializer ...T) (*Singleton[T], error) {
	ct, err := TypeOf[T](scene.ctx.types)
	if err != nil {
		return nil, err
	}
	ref, added, err := scene.singleton(ct)
	if err != nil {
		return nil, err
	}
	if added && len(initializer) > 0 {
		*(*T)(ref.Pointer()) = initializer[0]
	}
	return &Singleton[T]{ref: ref}, nil
}

// Init binds the accessor to scene. Runner.Register calls it for Singleton
// fields of a system.
func (s *Singleton[T]) Init(scene *Scene) error {
	ct, err := TypeOf[T](scene.ctx.types)
	if err != nil {
		return err
	}
	ref, _, err := scene.singleton(ct)
	if err != nil {
		return err
	}
	s.ref = ref
	return nil
}

// Get returns a pointer to the singleton data, or nil before Init.
func (s *Singleton[T]) Get() *T {
	if s.ref.IsZero() {
		return nil
	}
	return (*T)(s.ref.Pointer())
}

// Type returns the component type of T.
func (s *Singleton[T]) Type() ComponentType {
	return s.ref.ct
}

// GetSingleton reads the T singleton of scene, creating it zeroed if needed.
func GetSingleton[T any](scene *Scene) (*T, error) {
	s, err := NewSingleton[T](scene)
	if err != nil {
		return nil, err
	}
	return s.Get(), nil
}
