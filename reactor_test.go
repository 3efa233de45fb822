package stockroom

import (
	"testing"

	"github.com/TheBitDrifter/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverDispatch(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()
	healthComp := FactoryNewComponent[Health]()

	entities, err := storage.NewEntities(1, posComp)
	require.NoError(t, err)
	en := entities[0]

	moved := 0
	storage.OnEvent("moved", []AccessRequest{posComp.Write()}, func(target Entity) {
		posComp.GetFromEntity(target).X += 1
		moved++
	})

	// An observer whose terms name a component the entity lacks stays quiet
	storage.OnEvent("moved", []AccessRequest{healthComp.Read()}, func(Entity) {
		t.Error("observer fired for an entity without its term components")
	})

	storage.Emit("moved", en)
	storage.Emit("moved", en)

	assert.Equal(t, 2, moved)
	assert.Equal(t, 2.0, posComp.GetFromEntity(en).X)
	assert.Equal(t, 0, liveRecords(storage))
}

func TestObserverNestedEmitConflict(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()

	entities, err := storage.NewEntities(1, posComp)
	require.NoError(t, err)
	en := entities[0]

	storage.OnEvent("inner", []AccessRequest{posComp.Write()}, func(Entity) {
		t.Error("inner handler ran despite conflicting with the outer dispatch")
	})
	storage.OnEvent("outer", []AccessRequest{posComp.Read()}, func(target Entity) {
		storage.Emit("inner", target)
	})

	conflict := catchConflict(func() {
		storage.Emit("outer", en)
	})
	require.NotNil(t, conflict, "nested dispatch writing a component held for read must fail")
	assert.Equal(t, Exclusive, conflict.Requested)
	assert.Equal(t, Shared, conflict.Held)
	assert.Equal(t, 0, liveRecords(storage))
}

func TestObserverNestedEmitDisjointTerms(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := storage.NewEntities(1, posComp, velComp)
	require.NoError(t, err)
	en := entities[0]

	innerRan := false
	storage.OnEvent("inner", []AccessRequest{posComp.Write()}, func(target Entity) {
		posComp.GetFromEntity(target).X = 3
		innerRan = true
	})
	storage.OnEvent("outer", []AccessRequest{velComp.Write()}, func(target Entity) {
		storage.Emit("inner", target)
	})

	conflict := catchConflict(func() {
		storage.Emit("outer", en)
	})
	assert.Nil(t, conflict, "dispatches over disjoint component sets must not contend")
	assert.True(t, innerRan)
	assert.Equal(t, 3.0, posComp.GetFromEntity(en).X)
}

func TestRunSystem(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := storage.NewEntities(10, posComp, velComp)
	require.NoError(t, err)
	for _, en := range entities {
		velComp.ViewMut(en, func(v *Velocity) { v.X, v.Y = 1, 2 })
	}
	// A matching archetype the system should skip structurally
	_, err = storage.NewEntities(3, posComp)
	require.NoError(t, err)

	movement := System{
		Query: Factory.NewQuery().And(posComp, velComp),
		Terms: []AccessRequest{posComp.Write(), velComp.Read()},
		Run: func(cursor *Cursor) {
			pos := posComp.GetFromCursor(cursor)
			vel := velComp.GetFromCursor(cursor)
			pos.X += vel.X
			pos.Y += vel.Y
		},
	}
	storage.RunSystem(movement)
	storage.RunSystem(movement)

	for _, en := range entities {
		pos := posComp.GetFromEntity(en)
		assert.Equal(t, 2.0, pos.X)
		assert.Equal(t, 4.0, pos.Y)
	}
	assert.Equal(t, 0, liveRecords(storage))
}

func TestNestedSystemsOverlap(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()

	_, err := storage.NewEntities(4, posComp)
	require.NoError(t, err)

	node := Factory.NewQuery().And(posComp)
	inner := System{
		Query: node,
		Terms: []AccessRequest{posComp.Write()},
		Run:   func(*Cursor) {},
	}
	outer := System{
		Query: node,
		Terms: []AccessRequest{posComp.Read()},
		Run: func(*Cursor) {
			storage.RunSystem(inner)
		},
	}

	conflict := catchConflict(func() {
		storage.RunSystem(outer)
	})
	require.NotNil(t, conflict, "nested mutable iteration over the same column must fail")
	assert.Equal(t, 0, liveRecords(storage))
}

func TestNestedSystemsDisjointTables(t *testing.T) {
	schema := table.Factory.NewSchema()
	storage := Factory.NewStorage(schema)
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	_, err := storage.NewEntities(4, posComp)
	require.NoError(t, err)
	_, err = storage.NewEntities(4, posComp, velComp)
	require.NoError(t, err)

	q := Factory.NewQuery()
	inner := System{
		Query: q.And(posComp, q.Not(velComp)),
		Terms: []AccessRequest{posComp.Write()},
		Run: func(cursor *Cursor) {
			posComp.GetFromCursor(cursor).X++
		},
	}
	innerRuns := 0
	outer := System{
		Query: q.And(posComp, velComp),
		Terms: []AccessRequest{posComp.Write()},
		Run: func(*Cursor) {
			if innerRuns == 0 {
				storage.RunSystem(inner)
			}
			innerRuns++
		},
	}

	conflict := catchConflict(func() {
		storage.RunSystem(outer)
	})
	assert.Nil(t, conflict, "systems writing the same component in disjoint tables must not contend")
	assert.Equal(t, 4, innerRuns)
}
