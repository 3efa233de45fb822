package stockroom

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

type Storage interface {
	Entity(id int) (Entity, error)
	NewEntities(int, ...Component) ([]Entity, error)
	EnqueueNewEntities(int, ...Component) error
	DestroyEntities(...Entity) error
	EnqueueDestroyEntities(...Entity) error
	TransferEntities(Storage, ...Entity) error
	NewOrExistingArchetype(...Component) (Archetype, error)

	// WithAccess acquires every requested hold against the entity's current
	// table, runs body, and releases on every exit path. Acquisition is
	// all-or-nothing: a conflict rolls back holds taken so far and panics
	// with an AccessConflictError before body runs.
	WithAccess(Entity, []AccessRequest, func())

	// OnEvent registers an observer. Its terms declare which components the
	// handler touches and in which mode; they are held for the duration of
	// each notification.
	OnEvent(event string, terms []AccessRequest, handler func(Entity))

	// Emit synchronously notifies every observer of the event whose terms
	// are all present on the target entity's table.
	Emit(event string, target Entity)

	// RunSystem iterates the system's query, holding its declared terms for
	// each matched batch while the callback runs over that batch's rows.
	RunSystem(System)

	RowIndexFor(Component) uint32
	Locked() bool
	Lock()
	Unlock()
	AddLock(uint32)
	RemoveLock(uint32)
}

type EntityDestroyCallback func(Entity)

type Entity interface {
	table.Entry
	Storage() Storage
	Components() []Component
	ComponentsAsString() string
	SetParent(parent Entity, callback EntityDestroyCallback) error
	SetDestroyCallback(EntityDestroyCallback) error
	AddComponent(Component) error
	RemoveComponent(Component) error
	EnqueueAddComponent(Component) error
	EnqueueRemoveComponent(Component) error
}

// Component represents a data attribute/state that can be attached to entities
// Components can be used to create queries for entities
type Component interface {
	table.ElementType
}

type Archetype interface {
	ID() uint32
	Table() table.Table
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(archetype Archetype, storage Storage) bool
}

type iCursor interface {
	Entities() iter.Seq2[int, table.Table]
	Next() bool
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
}

// System pairs a query with the access terms its callback uses. Run is
// invoked once per row of each matched batch, with the cursor positioned on
// that row; the declared terms are held for the whole batch.
type System struct {
	Query QueryNode
	Terms []AccessRequest
	Run   func(*Cursor)
}

// Warning: internal Dependencies abound!
type Cursor struct {
	// The query to filter entities
	query QueryNode

	// The storage to iterate over
	storage Storage

	// Current iteration state
	currentArchetype archetype
	storageIndex     int
	entityIndex      int
	remaining        int

	// Access holds open for the current batch
	holds []*batchHold

	// Initialization state
	initialized     bool
	matchedStorages []archetype
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}
