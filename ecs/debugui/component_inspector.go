package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/chunkecs/ecs"
)

// ComponentInspector shows and edits the components of one entity. Edits
// are written straight into the entity record, so it must render outside
// of parallel query work, which is the case for ImguiItem render funcs.
type ComponentInspector struct {
	selectedEntityId ecs.EntityId
}

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{}
}

// ComponentValue returns an addressable value of the Go type behind ct over
// the record of v.
func ComponentValue(v ecs.EntityView, ct ecs.ComponentType) (reflect.Value, bool) {
	if v.IsZero() || !v.Has(ct) {
		return reflect.Value{}, false
	}
	t := v.Archetype().Scene().Types().ReflectType(ct)
	if t == nil {
		return reflect.Value{}, false
	}
	return reflect.NewAt(t, v.Pointer(ct)).Elem(), true
}

func (ci *ComponentInspector) Render(scene *ecs.Scene, selectedEntityId ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	ci.selectedEntityId = selectedEntityId
	if ci.selectedEntityId.IsNull() {
		imgui.Text("No entity selected")
		return
	}

	id, ok := resolveEntity(scene, ci.selectedEntityId)
	if !ok {
		imgui.Text(fmt.Sprintf("Entity %s is no longer live", ci.selectedEntityId))
		return
	}
	view, _ := scene.Lookup(id)

	imgui.Text(fmt.Sprintf("Entity: %s", id))
	imgui.Text(fmt.Sprintf("Archetype: %d", id.ArchetypeId()))
	imgui.Text(fmt.Sprintf("Record: %d bytes", view.Archetype().EntitySize()))
	imgui.Separator()

	types := scene.Types()
	for _, ct := range view.Archetype().Types() {
		val, ok := ComponentValue(view, ct)
		if !ok {
			continue
		}
		if imgui.TreeNodeStr(types.ReflectType(ct).String()) {
			ci.renderStruct(val, globalReflectionCache.ComponentFields(types, ct))
			imgui.TreePop()
		}
	}
}

func (ci *ComponentInspector) renderStruct(val reflect.Value, fields []FieldInfo) {
	if len(fields) == 0 {
		imgui.Text(fmt.Sprintf("%v", val.Interface()))
		return
	}
	for _, field := range fields {
		ci.renderField(field.Name, val.Field(field.Index))
	}
}

func (ci *ComponentInspector) renderField(name string, val reflect.Value) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && val.CanSet() && !val.OverflowInt(int64(v)) {
			val.SetInt(int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && val.CanSet() && v >= 0 && !val.OverflowUint(uint64(v)) {
			val.SetUint(uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) && val.CanSet() {
			val.SetFloat(float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && val.CanSet() {
			val.SetBool(v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			ci.renderStruct(val, globalReflectionCache.GetFields(val.Type()))
			imgui.TreePop()
		}

	case reflect.Array:
		if imgui.TreeNodeStr(fmt.Sprintf("%s [%d]", name, val.Len())) {
			for i := range val.Len() {
				ci.renderField(fmt.Sprintf("%s[%d]", name, i), val.Index(i))
			}
			imgui.TreePop()
		}

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
