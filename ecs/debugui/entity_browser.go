package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/chunkecs/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	ArchetypeID    int
	ComponentTypes []string
	ComponentCount int
	Pending        bool
}

type EntityBrowserCache struct {
	entities      []EntityInfo
	lastFrame     uint64
	sortColumn    int
	sortAscending bool
}

// EntityBrowser lists every committed entity of a scene.
type EntityBrowser struct {
	cache              *EntityBrowserCache
	selectedEntityId   ecs.EntityId
	filterText         string
	filterArchetypeId  int
	maxEntitiesPerPage int
	currentPage        int
}

func NewEntityBrowser(maxEntitiesPerPage int) *EntityBrowser {
	return &EntityBrowser{
		cache: &EntityBrowserCache{
			sortColumn:    0,
			sortAscending: true,
			lastFrame:     ^uint64(0),
		},
		filterArchetypeId:  -1,
		maxEntitiesPerPage: max(maxEntitiesPerPage, 1),
	}
}

func (eb *EntityBrowser) Render(scene *ecs.Scene, frame uint64) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(scene, frame)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterArchetypeId = -1
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			eb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
		}

		filteredEntities := eb.FilteredEntities()
		startIdx := min(eb.currentPage*eb.maxEntitiesPerPage, len(filteredEntities))
		endIdx := min(startIdx+eb.maxEntitiesPerPage, len(filteredEntities))

		for _, entity := range filteredEntities[startIdx:endIdx] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := entity.ID.String()
			if entity.Pending {
				label += " (removed)"
			}
			isSelected := eb.selectedEntityId.Identity() == entity.ID.Identity()
			if imgui.SelectableBoolV(label, isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selectedEntityId = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.ArchetypeID))

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.ComponentCount))
		}

		imgui.EndTable()
	}

	filteredEntities := eb.FilteredEntities()
	if len(filteredEntities) > eb.maxEntitiesPerPage {
		totalPages := (len(filteredEntities) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filteredEntities)))
	}

	imgui.End()
}

// rebuildCacheIfNeeded refreshes the entity list once per frame, since slot
// indices change at every completion pass.
func (eb *EntityBrowser) rebuildCacheIfNeeded(scene *ecs.Scene, frame uint64) {
	if eb.cache.entities != nil && eb.cache.lastFrame == frame {
		return
	}
	eb.cache.lastFrame = frame
	eb.Rebuild(scene)
}

// Rebuild recollects every entity of scene from archetype snapshots.
func (eb *EntityBrowser) Rebuild(scene *ecs.Scene) {
	eb.cache.entities = make([]EntityInfo, 0, 1024)

	for archetype := range scene.Archetypes() {
		snap := archetype.Inspect()
		pending := make(map[ecs.EntityId]bool, len(snap.PendingRemoval))
		for _, id := range snap.PendingRemoval {
			pending[id] = true
		}
		for _, id := range snap.Live {
			eb.cache.entities = append(eb.cache.entities, EntityInfo{
				ID:             id,
				ArchetypeID:    snap.ID,
				ComponentTypes: snap.Components,
				ComponentCount: len(snap.Components),
				Pending:        pending[id],
			})
		}
	}

	eb.sortEntities()
	if id, ok := resolveEntity(scene, eb.selectedEntityId); ok {
		eb.selectedEntityId = id
	}
}

func (eb *EntityBrowser) sortEntities() {
	sort.SliceStable(eb.cache.entities, func(i, j int) bool {
		a, b := eb.cache.entities[i], eb.cache.entities[j]
		if !eb.cache.sortAscending {
			a, b = b, a
		}
		var less bool

		switch eb.cache.sortColumn {
		case 1:
			less = a.ArchetypeID < b.ArchetypeID
		case 2:
			less = strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 3:
			less = a.ComponentCount < b.ComponentCount
		default:
			less = a.ID.Identity() < b.ID.Identity()
		}

		return less
	})
}

// FilteredEntities returns the cached entities matching the search text and
// archetype filter.
func (eb *EntityBrowser) FilteredEntities() []EntityInfo {
	if eb.filterText == "" && eb.filterArchetypeId < 0 {
		return eb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.cache.entities))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.cache.entities {
		if eb.filterArchetypeId >= 0 && entity.ArchetypeID != eb.filterArchetypeId {
			continue
		}

		if eb.filterText != "" {
			idStr := entity.ID.String()
			componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))
			if !strings.Contains(idStr, filterLower) && !strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

// SetFilter sets the search text and archetype filter; a negative archetype
// id disables the latter.
func (eb *EntityBrowser) SetFilter(text string, archetypeId int) {
	eb.filterText = text
	eb.filterArchetypeId = archetypeId
	eb.currentPage = 0
}

func (eb *EntityBrowser) Select(id ecs.EntityId) {
	eb.selectedEntityId = id
}

func (eb *EntityBrowser) GetSelectedEntity() ecs.EntityId {
	return eb.selectedEntityId
}

// resolveEntity finds the current slot of the entity named by id, following
// it across compactions by its inner key.
func resolveEntity(scene *ecs.Scene, id ecs.EntityId) (ecs.EntityId, bool) {
	if id.IsNull() {
		return 0, false
	}
	if v, ok := scene.Lookup(id); ok {
		return v.Id(), true
	}
	archetype, err := scene.ArchetypeByID(id.ArchetypeId())
	if err != nil || archetype.IsSingleton() {
		return 0, false
	}
	for v := range archetype.Entities() {
		if v.Key() == id.Key() && !v.IsInvalid() {
			return v.Id(), true
		}
	}
	return 0, false
}
