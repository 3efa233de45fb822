package stockroom

import "fmt"

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) already has parent %v", e.child, e.parent)
}

type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// AccessConflictError reports an access that is incompatible with holds
// already open on the same table column. It is raised as a panic value: the
// audience is the programmer who wrote the overlapping accesses.
type AccessConflictError struct {
	Component Component
	Requested AccessMode
	Held      AccessMode
	Holders   int
}

func (e AccessConflictError) Error() string {
	return fmt.Sprintf(
		"access conflict: cannot take %s access to %T: %s access already held by %d holder(s)",
		e.Requested, e.Component, e.Held, e.Holders,
	)
}
