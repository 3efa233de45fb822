package stockroom

import (
	"fmt"
	"iter"

	"github.com/TheBitDrifter/table"
)

var _ iCursor = &Cursor{}

// batchHold is one open projection hold, owned by a cursor and scoped to the
// batch it was opened in.
type batchHold struct {
	key      accessKey
	released bool
}

func newCursor(query QueryNode, storage Storage) *Cursor {
	return &Cursor{
		query:   query,
		storage: storage,
	}
}

func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.storageIndex < len(c.matchedStorages) {
		c.currentArchetype = c.matchedStorages[c.storageIndex]
		c.remaining = c.currentArchetype.table.Length()

		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.releaseBatchHolds()
		c.storageIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.initialize()

		for c.storageIndex < len(c.matchedStorages) {
			c.currentArchetype = c.matchedStorages[c.storageIndex]
			c.remaining = c.currentArchetype.table.Length()

			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, c.currentArchetype.table) {
					c.Reset()
					return
				}
				c.entityIndex++
			}
			c.releaseBatchHolds()
			c.entityIndex = 0
			c.storageIndex++
		}
		c.Reset()
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matchedStorages = make([]archetype, 0)

	// Find all matching archetypes
	for _, arch := range c.storage.(*storage).archetypes.asSlice {
		if c.query.Evaluate(arch, c.storage) {
			c.matchedStorages = append(c.matchedStorages, arch)
		}
	}
	if len(c.matchedStorages) > 0 {
		c.storageIndex = 0
		c.currentArchetype = c.matchedStorages[0]
		c.remaining = c.currentArchetype.table.Length()
	}
	c.initialized = true
}

func (c *Cursor) Reset() {
	c.releaseBatchHolds()
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matchedStorages = nil
	c.initialized = false
	c.storage.Unlock()
}

// openHold registers a projection hold on (current batch table, component).
// A conflicting request fails here, at the moment the batch would first
// touch the column.
func (c *Cursor) openHold(comp Component, mode AccessMode) *batchHold {
	tracker := c.storage.(*storage).tracker
	key := accessKey{tbl: c.currentArchetype.table, comp: comp}
	if err := tracker.register(key, mode); err != nil {
		raiseConflict(err)
	}
	hold := &batchHold{key: key}
	c.holds = append(c.holds, hold)
	return hold
}

func (c *Cursor) releaseHold(hold *batchHold) {
	if hold.released {
		return
	}
	hold.released = true
	c.storage.(*storage).tracker.release(hold.key)
}

// releaseBatchHolds returns every hold still open for the batch being left,
// in reverse acquisition order.
func (c *Cursor) releaseBatchHolds() {
	for i := len(c.holds) - 1; i >= 0; i-- {
		c.releaseHold(c.holds[i])
	}
	c.holds = c.holds[:0]
}

// CurrentRow is the row index of the cursor's position within the current
// batch, for indexing into batch projections.
func (c *Cursor) CurrentRow() int {
	return c.entityIndex - 1
}

// CurrentEntity resolves the entity handle at the cursor position.
func (c *Cursor) CurrentEntity() (Entity, error) {
	sto := c.storage.(*storage)
	tbl := c.currentArchetype.table
	row := c.entityIndex - 1
	for i := range sto.entities {
		en := &sto.entities[i]
		if en.Entry == nil {
			continue
		}
		if en.Table() == tbl && en.Index() == row {
			return en, nil
		}
	}
	return nil, fmt.Errorf("no entity at row %d of current archetype", row)
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.initialize()
	}
	total := 0
	for _, arch := range c.matchedStorages {
		total += arch.table.Length()
	}
	return total
}
