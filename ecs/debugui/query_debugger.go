package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/chunkecs/ecs"
)

type QueryDebuggerCache struct {
	componentTypes []string
	byName         map[string]ecs.ComponentType
	lastTypeCount  int
}

// QueryMatch is one archetype matched by the debugged query.
type QueryMatch struct {
	ID          int
	Components  []string
	EntityCount int
}

// QueryDebugger builds a query from selected component types and shows the
// archetypes it matches.
type QueryDebugger struct {
	selectedComponentTypes map[string]bool
	cache                  *QueryDebuggerCache
}

func NewQueryDebugger() *QueryDebugger {
	return &QueryDebugger{
		selectedComponentTypes: make(map[string]bool),
		cache: &QueryDebuggerCache{
			lastTypeCount: -1,
		},
	}
}

func (qd *QueryDebugger) Render(scene *ecs.Scene) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	qd.rebuildCacheIfNeeded(scene.Types())

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedComponentTypes = make(map[string]bool)
	}

	for _, compType := range qd.cache.componentTypes {
		selected := qd.selectedComponentTypes[compType]
		if imgui.Checkbox(compType, &selected) {
			qd.Toggle(compType, selected)
		}
	}

	imgui.Separator()

	matches, err := qd.Match(scene)
	if err != nil {
		imgui.Text(err.Error())
		return
	}
	if matches == nil {
		imgui.Text("No component types selected")
		return
	}

	totalEntities := 0
	for _, m := range matches {
		totalEntities += m.EntityCount
	}
	imgui.Text(fmt.Sprintf("Matching Archetypes: %d", len(matches)))
	imgui.Text(fmt.Sprintf("Matching Entities: %d", totalEntities))

	if imgui.TreeNodeStr("Archetype Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryArchTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Archetype")
			imgui.TableSetupColumn("All Components")
			imgui.TableSetupColumn("Entity Count")
			imgui.TableHeadersRow()

			for _, m := range matches {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", m.ID))

				imgui.TableSetColumnIndex(1)
				imgui.Text(fmt.Sprintf("%v", m.Components))

				imgui.TableSetColumnIndex(2)
				imgui.Text(fmt.Sprintf("%d", m.EntityCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}
}

// Toggle selects or deselects a component type by name.
func (qd *QueryDebugger) Toggle(name string, selected bool) {
	if selected {
		qd.selectedComponentTypes[name] = true
	} else {
		delete(qd.selectedComponentTypes, name)
	}
}

// Match runs the selected query against scene. It returns nil without error
// when nothing is selected.
func (qd *QueryDebugger) Match(scene *ecs.Scene) ([]QueryMatch, error) {
	qd.rebuildCacheIfNeeded(scene.Types())

	var types []ecs.ComponentType
	for name := range qd.selectedComponentTypes {
		if ct, ok := qd.cache.byName[name]; ok {
			types = append(types, ct)
		}
	}
	if len(types) == 0 {
		return nil, nil
	}

	q, err := scene.Query(types...)
	if err != nil {
		return nil, err
	}
	matches := []QueryMatch{}
	for a := range q.Match() {
		matches = append(matches, QueryMatch{
			ID:          a.ID(),
			Components:  a.Set().Names(scene.Types()),
			EntityCount: a.Count(),
		})
	}
	return matches, nil
}

func (qd *QueryDebugger) rebuildCacheIfNeeded(types *ecs.TypeRegistry) {
	if qd.cache.lastTypeCount == types.Len() {
		return
	}
	qd.cache.lastTypeCount = types.Len()

	qd.cache.byName = make(map[string]ecs.ComponentType)
	qd.cache.componentTypes = qd.cache.componentTypes[:0]
	for ct, t := range types.All() {
		if ct.Mode() != ecs.ModeInstance {
			continue
		}
		qd.cache.byName[t.String()] = ct
		qd.cache.componentTypes = append(qd.cache.componentTypes, t.String())
	}
	sort.Strings(qd.cache.componentTypes)
}
