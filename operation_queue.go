package stockroom

import (
	"fmt"
)

type operation struct {
	typ      operationType
	amount   int
	comps    []Component
	entities []Entity
	sto      Storage
}

type operationType int

const (
	opCreate operationType = iota
	opDestroy
	opAddComponent
	opRemoveComponent
)

type opKey struct {
	entity Entity
}

type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[opKey]struct{}
	pendingMods    map[opKey]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[opKey]struct{}),
		pendingMods:    make(map[opKey]int),
	}
}

func (sto *storage) processOperationQueue() error {
	if len(sto.opQueue.createOps) == 0 &&
		len(sto.opQueue.componentOps) == 0 &&
		len(sto.opQueue.destroyOps) == 0 {
		return nil
	}

	// Process creates first
	for _, op := range sto.opQueue.createOps {
		if _, err := sto.NewEntities(op.amount, op.comps...); err != nil {
			return fmt.Errorf("failed to process queued entity creation: %w", err)
		}
	}

	// Process component modifications
	for _, op := range sto.opQueue.componentOps {
		if op.typ != opAddComponent && op.typ != opRemoveComponent {
			continue // cancelled by a queued destroy
		}
		en := op.entities[0]

		// Verify entry hasn't been recycled
		if en.ID() == 0 {
			continue
		}
		switch op.typ {
		case opAddComponent:
			if err := en.AddComponent(op.comps[0]); err != nil {
				return fmt.Errorf("failed to add queued component: %w", err)
			}
		case opRemoveComponent:
			if err := en.RemoveComponent(op.comps[0]); err != nil {
				return fmt.Errorf("failed to remove queued component: %w", err)
			}
		}
	}

	// Process destroys last
	for _, op := range sto.opQueue.destroyOps {
		if len(op.entities) > 0 {
			if err := op.sto.DestroyEntities(op.entities...); err != nil {
				return fmt.Errorf("failed to delete queued entries: %w", err)
			}
		}
	}

	// Clear all queues
	sto.opQueue.createOps = sto.opQueue.createOps[:0]
	sto.opQueue.componentOps = sto.opQueue.componentOps[:0]
	sto.opQueue.destroyOps = sto.opQueue.destroyOps[:0]
	clear(sto.opQueue.pendingDestroy)
	clear(sto.opQueue.pendingMods)
	return nil
}

func (q *opQueue) EnqueueDestroy(sto Storage, entries []Entity) {
	// Filter out already queued entities
	var newEntities []Entity
	for _, en := range entries {
		key := opKey{entity: en}
		if _, exists := q.pendingDestroy[key]; !exists {
			newEntities = append(newEntities, en)
			q.pendingDestroy[key] = struct{}{}

			// Remove any pending component operations for this entity
			if idx, hasMods := q.pendingMods[key]; hasMods {
				// Mark operation as no-op by setting type to invalid
				q.componentOps[idx].typ = -1
				delete(q.pendingMods, key)
			}
		}
	}

	if len(newEntities) > 0 {
		q.destroyOps = append(q.destroyOps, operation{
			typ:      opDestroy,
			entities: newEntities,
			sto:      sto,
		})
	}
}

func (q *opQueue) EnqueueComponentOp(typ operationType, sto Storage, en Entity, comp Component) {
	key := opKey{entity: en}

	// If entity is pending destroy, ignore component operations
	if _, isDestroyed := q.pendingDestroy[key]; isDestroyed {
		return
	}

	// If entity already has pending component operations, update existing operation
	if existingIdx, exists := q.pendingMods[key]; exists {
		existingOp := &q.componentOps[existingIdx]
		existingOp.comps = []Component{comp}
		existingOp.typ = typ
		return
	}

	// Add new operation
	q.pendingMods[key] = len(q.componentOps)
	q.componentOps = append(q.componentOps, operation{
		typ:      typ,
		entities: []Entity{en},
		sto:      sto,
		comps:    []Component{comp},
	})
}
