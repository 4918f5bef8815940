package debugui

import (
	"github.com/plus3/chunkecs/ecs"
)

// DebugUI groups the debug panels of one scene.
type DebugUI struct {
	Scene              *ecs.Scene
	EntityBrowser      *EntityBrowser
	ComponentInspector *ComponentInspector
	ArchetypeViewer    *ArchetypeViewer
	PerformanceStats   *PerformanceStats
	QueryDebugger      *QueryDebugger

	timer *FrameTimer
	frame uint64
	item  ecs.EntityId
}

// SpawnDebugUI creates the debug panels and an ImguiItem rendering them.
// They appear from the next frame on.
func SpawnDebugUI(scene *ecs.Scene) (*DebugUI, error) {
	if err := RegisterDebugUIComponents(scene.Types()); err != nil {
		return nil, err
	}
	ui := &DebugUI{
		Scene:              scene,
		EntityBrowser:      NewEntityBrowser(100),
		ComponentInspector: NewComponentInspector(),
		ArchetypeViewer:    NewArchetypeViewer(),
		PerformanceStats:   NewPerformanceStats(120),
		QueryDebugger:      NewQueryDebugger(),
		timer:              NewFrameTimer(),
	}
	v, err := AddItem(scene, ui.Render)
	if err != nil {
		return nil, err
	}
	ui.item = v.Id()
	return ui, nil
}

// Render draws every panel.
func (ui *DebugUI) Render() {
	ui.frame++
	ui.EntityBrowser.Render(ui.Scene, ui.frame)
	ui.ComponentInspector.Render(ui.Scene, ui.EntityBrowser.GetSelectedEntity())
	if id := ui.ArchetypeViewer.Render(ui.Scene); id >= 0 {
		ui.EntityBrowser.SetFilter("", id)
	}
	ui.PerformanceStats.Render(ui.Scene, ui.timer.GetDeltaTime())
	ui.QueryDebugger.Render(ui.Scene)
}

// Close removes the ImguiItem of the panels.
func (ui *DebugUI) Close() {
	if id, ok := resolveEntity(ui.Scene, ui.item); ok {
		RemoveItem(ui.Scene, id)
	}
}

// RegisterDebugUIComponents registers the component types of this package.
func RegisterDebugUIComponents(registry *ecs.TypeRegistry) error {
	if _, err := ecs.TypeOf[ImguiItem](registry); err != nil {
		return err
	}
	if _, err := ecs.TypeOf[ImguiInputState](registry); err != nil {
		return err
	}
	return nil
}
