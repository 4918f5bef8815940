// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/chunkecs/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function through
// the scene's reference table. Attach it to entities that should render
// ImGui widgets each frame.
type ImguiItem struct {
	Render ecs.RefOf[func()]
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton component.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	ecs.SingletonTag
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// AddItem creates an ImguiItem entity rendering fn. The item takes part in
// rendering from the next frame on.
func AddItem(scene *ecs.Scene, fn func()) (ecs.EntityView, error) {
	ct, err := ecs.TypeOf[ImguiItem](scene.Types())
	if err != nil {
		return ecs.EntityView{}, err
	}
	arch, err := scene.ArchetypeOf(ct)
	if err != nil {
		return ecs.EntityView{}, err
	}
	arch.WillCreate(1)
	v := arch.Create()
	ecs.GetAs[ImguiItem](v, ct).Render = ecs.AddRef(scene.Refs(), fn)
	return v, nil
}

// RemoveItem removes an ImguiItem entity and releases its render function.
func RemoveItem(scene *ecs.Scene, id ecs.EntityId) bool {
	v, ok := scene.Lookup(id)
	if !ok {
		return false
	}
	ecs.Get[ImguiItem](v).Render.Release(scene.Refs())
	scene.Remove(id)
	return true
}

// ImguiSystem queries all ImguiItem components and defers their render functions.
// It also updates the ImguiInputState singleton with current input capture state.
type ImguiSystem struct {
	InputState ecs.Singleton[ImguiInputState]
	items      *ecs.Query
}

// Start builds the item query.
func (i *ImguiSystem) Start(frame *ecs.UpdateFrame) {
	i.items = frame.Scene.MustQuery(ecs.MustTypeOf[ImguiItem](frame.Scene.Types()))
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	state := i.InputState.Get()
	state.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
	state.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()

	refs := frame.Scene.Refs()
	for r := range i.items.Each() {
		if render, ok := ecs.Component[ImguiItem](r, 0).Render.Resolve(refs); ok && render != nil {
			frame.Commands.Defer(render)
		}
	}
}
