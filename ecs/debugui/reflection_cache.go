package debugui

import (
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"

	"github.com/plus3/chunkecs/ecs"
)

type FieldInfo struct {
	Name     string
	Type     reflect.Type
	Index    int
	Offset   uintptr
	IsStruct bool
	IsArray  bool
}

// ReflectionCache remembers the exported fields of component types, keyed by
// component id.
type ReflectionCache struct {
	mu         sync.RWMutex
	fieldCache *intmap.Map[ecs.ComponentType, []FieldInfo]
	nested     map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fieldCache: intmap.New[ecs.ComponentType, []FieldInfo](32),
		nested:     make(map[reflect.Type][]FieldInfo),
	}
}

// ComponentFields returns the exported fields of the Go type behind ct.
func (rc *ReflectionCache) ComponentFields(types *ecs.TypeRegistry, ct ecs.ComponentType) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache.Get(ct)
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	fields := rc.GetFields(types.ReflectType(ct))
	rc.mu.Lock()
	rc.fieldCache.Put(ct, fields)
	rc.mu.Unlock()
	return fields
}

// GetFields returns the exported fields of t.
func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.nested[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cached, ok := rc.nested[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t != nil && t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() || field.Type.Size() == 0 {
				continue
			}
			fields = append(fields, FieldInfo{
				Name:     field.Name,
				Type:     field.Type,
				Index:    i,
				Offset:   field.Offset,
				IsStruct: field.Type.Kind() == reflect.Struct,
				IsArray:  field.Type.Kind() == reflect.Array,
			})
		}
	}

	rc.nested[t] = fields
	return fields
}

// Reset forgets every cached type. Call it after the type registry is reset.
func (rc *ReflectionCache) Reset() {
	rc.mu.Lock()
	rc.fieldCache.Clear()
	clear(rc.nested)
	rc.mu.Unlock()
}

var globalReflectionCache = NewReflectionCache()
