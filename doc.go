/*
Package stockroom provides an Entity-Component-System (ECS) framework with
runtime access checking for games and simulations.

Stockroom is built on an archetype-based storage system that keeps entities
with the same component types together for optimal cache utilization. On top
of that it tracks every component access handed to user code: each access is
registered against the physical (table, component) pair it touches, in shared
or exclusive mode, and overlapping accesses that disagree on mutability fail
immediately instead of corrupting data.

Core Concepts:

  - Entity: A unique identifier that represents a game object.
  - Component: A data container that defines entity attributes.
  - Archetype: A collection of entities sharing the same component types.
  - Query: A way to find entities with specific component combinations.
  - Access: A scoped shared (read) or exclusive (write) hold on one
    component column of one archetype table.

Basic Usage:

	// Create storage with schema
	schema := table.Factory.NewSchema()
	storage := stockroom.Factory.NewStorage(schema)

	// Define components
	position := stockroom.FactoryNewComponent[Position]()
	velocity := stockroom.FactoryNewComponent[Velocity]()

	// Create entities
	entities, _ := storage.NewEntities(100, position, velocity)

	// Read one component under a shared hold
	position.View(entities[0], func(pos *Position) {
		fmt.Println(pos.X, pos.Y)
	})

	// Query entities and process them under batch holds
	query := stockroom.Factory.NewQuery()
	queryNode := query.And(position, velocity)
	cursor := stockroom.Factory.NewCursor(queryNode, storage)

	for cursor.Next() {
		pos := position.WriteBatch(cursor)
		vel := velocity.ReadBatch(cursor)
		i := cursor.CurrentRow()
		pos.At(i).X += vel.At(i).X
		pos.At(i).Y += vel.At(i).Y
		pos.Release()
		vel.Release()
	}

Access violations (two writers, or a writer overlapping readers, on the same
table column) are programming defects. They are reported loudly through the
package logger and raised as a panic carrying an AccessConflictError; they are
never queued, retried, or silently dropped.
*/
package stockroom
