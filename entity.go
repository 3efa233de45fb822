package stockroom

import (
	"fmt"
	"strings"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
)

var _ Entity = &entity{}

type entity struct {
	sto *storage
	table.Entry
	relationships relationships
}

type relationships struct {
	parent    Entity
	onDestroy EntityDestroyCallback
}

func (e *entity) Storage() Storage {
	return e.sto
}

// refreshEntry re-fetches the live entry after a table move. Entries are
// value snapshots, and a transfer mints a fresh entry under the same id, so
// the embedded copy would keep pointing at the vacated table.
func (e *entity) refreshEntry() error {
	fresh, err := mainIndex.Entry(int(e.ID()) - 1)
	if err != nil {
		return err
	}
	e.Entry = fresh
	e.sto.indexEntity(*e)
	return nil
}

// Components lists the element types of the entity's current table.
func (e *entity) Components() []Component {
	elementTypes := iter_util.Collect(e.Table().ElementTypes())
	components := make([]Component, len(elementTypes))
	for i, elementType := range elementTypes {
		components[i] = elementType
	}
	return components
}

func (e *entity) ComponentsAsString() string {
	components := e.Components()
	names := make([]string, len(components))
	for i, component := range components {
		names[i] = componentName(component)
	}
	return strings.Join(names, ", ")
}

func (e *entity) SetParent(parent Entity, callback EntityDestroyCallback) error {
	if e.relationships.parent != nil {
		return EntityRelationError{e, e.relationships.parent}
	}
	e.relationships.parent = parent
	err := parent.SetDestroyCallback(callback)
	if err != nil {
		return err
	}
	return nil
}

func (e *entity) SetDestroyCallback(callback EntityDestroyCallback) error {
	e.relationships.onDestroy = callback
	// Keep the storage's indexed copy in sync so destruction sees it.
	index := int(e.ID()) - 1
	if index >= 0 && index < len(e.sto.entities) {
		e.sto.entities[index].relationships.onDestroy = callback
	}
	return nil
}

func (e *entity) AddComponent(c Component) error {
	if e.sto.Locked() {
		return LockedStorageError{}
	}
	originTable := e.Table()
	if originTable.Contains(c) {
		return ComponentExistsError{Component: c}
	}

	originMask := originTable.(mask.Maskable).Mask()
	destMask := originMask
	destMask.Mark(e.sto.schema.RowIndexFor(c))

	destArchetype, err := e.getOrCreateArchetype(destMask, c)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}

	if err := originTable.TransferEntries(destArchetype.table, e.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	if err := e.refreshEntry(); err != nil {
		return fmt.Errorf("failed to refresh entity after transfer: %w", err)
	}
	return nil
}

func (e *entity) RemoveComponent(c Component) error {
	if e.sto.Locked() {
		return LockedStorageError{}
	}
	originTable := e.Table()
	if !originTable.Contains(c) {
		return ComponentNotFoundError{Component: c}
	}

	originMask := originTable.(mask.Maskable).Mask()
	destMask := originMask
	destMask.Unmark(e.sto.schema.RowIndexFor(c))

	destArchetype, err := e.getOrCreateArchetypeWithout(destMask, c)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}

	if err := originTable.TransferEntries(destArchetype.table, e.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	if err := e.refreshEntry(); err != nil {
		return fmt.Errorf("failed to refresh entity after transfer: %w", err)
	}
	return nil
}

func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.sto.Locked() {
		return e.AddComponent(c)
	}
	e.sto.opQueue.EnqueueComponentOp(opAddComponent, e.sto, e, c)
	return nil
}

func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.sto.Locked() {
		return e.RemoveComponent(c)
	}
	e.sto.opQueue.EnqueueComponentOp(opRemoveComponent, e.sto, e, c)
	return nil
}

func (e *entity) getOrCreateArchetype(destMask mask.Mask, newComp Component) (archetype, error) {
	if id, found := e.sto.archetypes.idsGroupedByMask[destMask]; found {
		return e.sto.archetypes.asSlice[id-1], nil
	}

	// Create new archetype with all components including the new one
	originalComps := e.Components()
	newComps := make([]Component, len(originalComps)+1)
	copy(newComps, originalComps)
	newComps[len(newComps)-1] = newComp

	return e.sto.newOrExistingArchetype(newComps...)
}

// Helper for finding or creating archetypes when removing components
func (e *entity) getOrCreateArchetypeWithout(destMask mask.Mask, removeComp Component) (archetype, error) {
	if id, found := e.sto.archetypes.idsGroupedByMask[destMask]; found {
		return e.sto.archetypes.asSlice[id-1], nil
	}

	originalComps := e.Components()
	newComps := make([]Component, 0, len(originalComps)-1)
	for _, comp := range originalComps {
		if comp != removeComp {
			newComps = append(newComps, comp)
		}
	}

	return e.sto.newOrExistingArchetype(newComps...)
}
