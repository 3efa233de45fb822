package stockroom

import "github.com/TheBitDrifter/table"

// AccessibleComponent extends a base Component with table-based accessibility
// It provides methods to retrieve components using different access patterns
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
}

// Read builds a shared access request for this component.
func (c AccessibleComponent[T]) Read() AccessRequest {
	return AccessRequest{Component: c.Component, Mode: Shared}
}

// Write builds an exclusive access request for this component.
func (c AccessibleComponent[T]) Write() AccessRequest {
	return AccessRequest{Component: c.Component, Mode: Exclusive}
}

// View runs body with a shared hold on the entity's column for this
// component. The hold spans exactly the body call; nested accessors must
// request their own holds and are checked against this one.
func (c AccessibleComponent[T]) View(entity Entity, body func(*T)) {
	sto := entity.Storage().(*storage)
	withTableAccess(sto.tracker, entity.Table(), []AccessRequest{c.Read()}, func() {
		body(c.Get(entity.Index(), entity.Table()))
	})
}

// ViewMut runs body with an exclusive hold on the entity's column for this
// component. Any other open hold on the same column fails the call.
func (c AccessibleComponent[T]) ViewMut(entity Entity, body func(*T)) {
	sto := entity.Storage().(*storage)
	withTableAccess(sto.tracker, entity.Table(), []AccessRequest{c.Write()}, func() {
		body(c.Get(entity.Index(), entity.Table()))
	})
}

// ReadBatch opens a shared projection over this component's column for the
// cursor's current batch. Multiple shared projections of one batch coexist.
// The projection releases when the cursor leaves the batch, or earlier via
// Release.
func (c AccessibleComponent[T]) ReadBatch(cursor *Cursor) Batch[T] {
	return newBatch(c, cursor, Shared)
}

// WriteBatch opens an exclusive projection over this component's column for
// the cursor's current batch. Only one outstanding projection of a column is
// allowed while a write projection is open.
func (c AccessibleComponent[T]) WriteBatch(cursor *Cursor) Batch[T] {
	return newBatch(c, cursor, Exclusive)
}

// GetFromCursor retrieves a component value for the entity at the cursor position.
// It does not register access; use it inside an open batch projection or guard.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(
		cursor.entityIndex-1,
		cursor.currentArchetype.table,
	)
}

// GetFromCursorSafe safely retrieves a component value, checking if the component exists
// Returns a boolean indicating success and the component pointer if found
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	ok := c.Accessor.Check(cursor.currentArchetype.table)
	if ok {
		return true, c.GetFromCursor(cursor)
	}
	return false, nil
}

// CheckCursor determines if the component exists in the archetype at the cursor position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.table)
}

// GetFromEntity retrieves a component value for the specified entity.
// It does not register access; use it inside WithAccess or a View body.
func (c AccessibleComponent[T]) GetFromEntity(entity Entity) *T {
	return c.Get(entity.Index(), entity.Table())
}

// Batch is a typed projection of one component column for the batch a cursor
// is currently positioned in. It indexes by row within the batch.
type Batch[T any] struct {
	acc    table.Accessor[T]
	tbl    table.Table
	length int
	cursor *Cursor
	hold   *batchHold
}

func newBatch[T any](c AccessibleComponent[T], cursor *Cursor, mode AccessMode) Batch[T] {
	hold := cursor.openHold(c.Component, mode)
	return Batch[T]{
		acc:    c.Accessor,
		tbl:    cursor.currentArchetype.table,
		length: cursor.remaining,
		cursor: cursor,
		hold:   hold,
	}
}

func (b Batch[T]) At(i int) *T {
	return b.acc.Get(i, b.tbl)
}

func (b Batch[T]) Len() int {
	return b.length
}

// Release returns the projection's hold early. Without it, the hold is
// returned when the cursor advances past the batch or resets. Releasing
// twice is a no-op.
func (b Batch[T]) Release() {
	b.cursor.releaseHold(b.hold)
}
