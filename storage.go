package stockroom

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

var _ Storage = &storage{}

var mainIndex = table.Factory.NewEntryIndex()

type storage struct {
	lockBits   map[uint32]struct{}
	schema     table.Schema
	archetypes *archetypes
	opQueue    opQueue
	entities   []entity
	tracker    *accessTracker
	observers  map[string][]observer
}

type archetypes struct {
	nextID           archetypeID
	asSlice          []archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newStorage(schema table.Schema) Storage {
	archetypes := &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
	return &storage{
		lockBits:   make(map[uint32]struct{}),
		archetypes: archetypes,
		schema:     schema,
		opQueue:    newOpQueue(),
		tracker:    newAccessTracker(),
		observers:  make(map[string][]observer),
	}
}

func (sto *storage) Entity(id int) (Entity, error) {
	if id < 1 || id > len(sto.entities) {
		return nil, fmt.Errorf("entity id out of range: %d", id)
	}
	return &sto.entities[id-1], nil
}

// NewOrExistingArchetype finds the archetype for the component set, creating
// it (and its engine table) on first use. Component order is irrelevant; the
// archetype is keyed by the set's mask.
func (sto *storage) NewOrExistingArchetype(components ...Component) (Archetype, error) {
	return sto.newOrExistingArchetype(components...)
}

func (sto *storage) newOrExistingArchetype(components ...Component) (archetype, error) {
	var entityMask mask.Mask
	for _, component := range components {
		sto.schema.Register(component)
		bit := sto.schema.RowIndexFor(component)
		entityMask.Mark(bit)
	}
	if id, found := sto.archetypes.idsGroupedByMask[entityMask]; found {
		return sto.archetypes.asSlice[id-1], nil
	}
	created, err := newArchetype(sto.schema, mainIndex, sto.archetypes.nextID, components...)
	if err != nil {
		return archetype{}, err
	}
	sto.archetypes.asSlice = append(sto.archetypes.asSlice, created)
	sto.archetypes.idsGroupedByMask[entityMask] = sto.archetypes.nextID
	sto.archetypes.nextID++
	return created, nil
}

func (sto *storage) NewEntities(n int, components ...Component) ([]Entity, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	entityArchetype, err := sto.newOrExistingArchetype(components...)
	if err != nil {
		return nil, err
	}
	entries, err := entityArchetype.table.NewEntries(n)
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, n)
	for i, entry := range entries {
		en := &entity{
			Entry: entry,
			sto:   sto,
		}
		entities[i] = en
		sto.indexEntity(*en)
	}
	return entities, nil
}

// indexEntity records the entity in the id-indexed lookup slice, growing it
// as needed (ids come from the shared entry index, so gaps are possible).
func (sto *storage) indexEntity(en entity) {
	idx := int(en.ID()) - 1
	if idx >= cap(sto.entities) {
		newCap := max(idx+1, 2*cap(sto.entities))
		grown := make([]entity, len(sto.entities), newCap)
		copy(grown, sto.entities)
		sto.entities = grown
	}
	if idx >= len(sto.entities) {
		sto.entities = sto.entities[:idx+1]
	}
	sto.entities[idx] = en
}

func (sto *storage) RowIndexFor(c Component) uint32 {
	return sto.schema.RowIndexFor(c)
}

func (sto *storage) Locked() bool {
	return len(sto.lockBits) > 0
}

func (sto *storage) Lock() {
	sto.AddLock(0)
}

func (sto *storage) Unlock() {
	clear(sto.lockBits)
	if err := sto.processOperationQueue(); err != nil {
		panic(err)
	}
}

// AddLock marks one lock bit. The storage is locked while any bit is set.
func (sto *storage) AddLock(bit uint32) {
	sto.lockBits[bit] = struct{}{}
}

// RemoveLock clears one lock bit; clearing the last bit drains the
// operation queue.
func (sto *storage) RemoveLock(bit uint32) {
	delete(sto.lockBits, bit)
	if len(sto.lockBits) == 0 {
		if err := sto.processOperationQueue(); err != nil {
			panic(err)
		}
	}
}

func (sto *storage) EnqueueNewEntities(amount int, components ...Component) error {
	if !sto.Locked() {
		_, err := sto.NewEntities(amount, components...)
		if err != nil {
			return fmt.Errorf("failed to create entities directly: %w", err)
		}
		return nil
	}

	sto.opQueue.createOps = append(sto.opQueue.createOps, operation{
		typ:    opCreate,
		amount: amount,
		comps:  components,
	})
	return nil
}

func (sto *storage) DestroyEntities(entities ...Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	// DeleteEntries takes row indices within one table, so group rows per
	// table and resolve each handle through the shared entry index first.
	tableGroups := make(map[table.Table][]int)
	for _, en := range entities {
		if en == nil {
			continue
		}
		live, err := mainIndex.Entry(int(en.ID()) - 1)
		if err != nil {
			return fmt.Errorf("failed to resolve entity %d: %w", en.ID(), err)
		}
		tableGroups[live.Table()] = append(tableGroups[live.Table()], live.Index())
	}
	for tbl, rows := range tableGroups {
		if _, err := tbl.DeleteEntries(rows...); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
	}
	for _, en := range entities {
		if en == nil {
			continue
		}
		// Adjust for 0-based indexing since entity IDs start at 1
		index := int(en.ID()) - 1
		if index >= 0 && index < len(sto.entities) {
			if cb := sto.entities[index].relationships.onDestroy; cb != nil {
				cb(&sto.entities[index])
			}
			sto.entities[index] = entity{}
		}
	}
	return nil
}

func (sto *storage) EnqueueDestroyEntities(entities ...Entity) error {
	if !sto.Locked() {
		return sto.DestroyEntities(entities...)
	}

	sto.opQueue.EnqueueDestroy(sto, entities)

	return nil
}

// TransferEntities moves entities into dest, finding or creating the
// matching archetype there and letting the engine move the rows. Handles
// stay valid: each one keeps its id and is re-fetched from the shared entry
// index after the move.
func (sto *storage) TransferEntities(dest Storage, entities ...Entity) error {
	if sto.Locked() || dest.Locked() {
		return LockedStorageError{}
	}
	destStorage, ok := dest.(*storage)
	if !ok {
		return fmt.Errorf("unsupported destination storage type: %T", dest)
	}
	for _, en := range entities {
		handle, ok := en.(*entity)
		if !ok {
			return fmt.Errorf("unsupported entity type: %T", en)
		}
		destArchetype, err := destStorage.newOrExistingArchetype(handle.Components()...)
		if err != nil {
			return fmt.Errorf("failed to get/create destination archetype: %w", err)
		}
		if err := handle.Table().TransferEntries(destArchetype.table, handle.Index()); err != nil {
			return fmt.Errorf("failed to transfer entity: %w", err)
		}
		index := int(handle.ID()) - 1
		if index >= 0 && index < len(sto.entities) {
			sto.entities[index] = entity{}
		}
		handle.sto = destStorage
		if err := handle.refreshEntry(); err != nil {
			return fmt.Errorf("failed to refresh entity after transfer: %w", err)
		}
	}
	return nil
}
