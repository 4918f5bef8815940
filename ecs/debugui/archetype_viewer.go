package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/chunkecs/ecs"
)

type ArchetypeInfo struct {
	ID             int
	ComponentTypes []string
	EntityCount    int
	ComponentCount int
	ChunkCount     int
	EntitySize     int
	Utilization    float64
}

type ArchetypeViewerCache struct {
	archetypes    []ArchetypeInfo
	sortColumn    int
	sortAscending bool
}

// ArchetypeViewer lists the archetypes of a scene with their chunk usage.
type ArchetypeViewer struct {
	cache          *ArchetypeViewerCache
	selectedArchId int
}

func NewArchetypeViewer() *ArchetypeViewer {
	return &ArchetypeViewer{
		cache: &ArchetypeViewerCache{
			sortColumn:    3,
			sortAscending: false,
		},
		selectedArchId: -1,
	}
}

// Render draws the viewer and returns the id of a newly clicked archetype,
// or -1.
func (av *ArchetypeViewer) Render(scene *ecs.Scene) int {
	if !imgui.BeginV("Archetype Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return -1
	}
	defer imgui.End()

	av.Rebuild(scene.Stats())

	maxEntityCount := 0
	for _, arch := range av.cache.archetypes {
		maxEntityCount = max(maxEntityCount, arch.EntityCount)
	}

	clicked := -1
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ArchetypeTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Comp Count")
		imgui.TableSetupColumn("Entity Count")
		imgui.TableSetupColumn("Chunks")
		imgui.TableSetupColumn("Record")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			av.cache.sortColumn = int(spec.ColumnIndex())
			av.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			av.sortArchetypes()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, arch := range av.cache.archetypes {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := av.selectedArchId == arch.ID
			if imgui.SelectableBoolV(fmt.Sprintf("%d", arch.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				clicked = arch.ID
				av.selectedArchId = arch.ID
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(arch.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", arch.ComponentCount))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", arch.EntityCount))
			if maxEntityCount > 0 {
				barWidth := float32(arch.EntityCount) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d (%.0f%%)", arch.ChunkCount, arch.Utilization*100))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d B", arch.EntitySize))
		}

		imgui.EndTable()
	}
	return clicked
}

// Rebuild refreshes the cached rows from stats.
func (av *ArchetypeViewer) Rebuild(stats ecs.SceneStats) {
	av.cache.archetypes = av.cache.archetypes[:0]
	for _, as := range stats.Archetypes {
		av.cache.archetypes = append(av.cache.archetypes, ArchetypeInfo{
			ID:             as.ID,
			ComponentTypes: as.Components,
			EntityCount:    as.EntityCount,
			ComponentCount: len(as.Components),
			ChunkCount:     as.ChunkCount,
			EntitySize:     as.EntitySize,
			Utilization:    as.Utilization,
		})
	}
	av.sortArchetypes()
}

// Archetypes returns the cached rows in display order.
func (av *ArchetypeViewer) Archetypes() []ArchetypeInfo {
	return av.cache.archetypes
}

func (av *ArchetypeViewer) sortArchetypes() {
	sort.SliceStable(av.cache.archetypes, func(i, j int) bool {
		a, b := av.cache.archetypes[i], av.cache.archetypes[j]
		if !av.cache.sortAscending {
			a, b = b, a
		}
		var less bool

		switch av.cache.sortColumn {
		case 0:
			less = a.ID < b.ID
		case 1:
			less = strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 2:
			less = a.ComponentCount < b.ComponentCount
		case 4:
			less = a.ChunkCount < b.ChunkCount
		case 5:
			less = a.EntitySize < b.EntitySize
		default:
			less = a.EntityCount < b.EntityCount
		}

		return less
	})
}
