package archtype

import "fmt"

// NoSuchEntityError is returned when an entity handle is stale or was
// never allocated by this World (spec.md §7).
type NoSuchEntityError struct {
	Entity Entity
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("archtype: no such entity %+v", e.Entity)
}

// NoSuchArchetypeError describes an entity that exists but whose archetype
// is not matched by the query being used to access it (spec.md §7). No
// function in this package returns it: QueryState has no per-entity
// lookup.
type NoSuchArchetypeError struct {
	Entity Entity
}

func (e NoSuchArchetypeError) Error() string {
	return fmt.Sprintf("archtype: entity %+v is not in a matched archetype", e.Entity)
}

// MissingReadAccessError is panicked with when an Iter-based accessor
// (GetFromIter) is called for a component its QueryState never declared
// via Read or Write (spec.md §7).
type MissingReadAccessError struct {
	Component reflectTypeName
}

func (e MissingReadAccessError) Error() string {
	return fmt.Sprintf("archtype: missing read access to %s", e.Component)
}

// MissingWriteAccessError is panicked with when SetFromIter is called for
// a component its QueryState never declared via Write (spec.md §7).
type MissingWriteAccessError struct {
	Component reflectTypeName
}

func (e MissingWriteAccessError) Error() string {
	return fmt.Sprintf("archtype: missing write access to %s", e.Component)
}

// reflectTypeName is a small string alias so error messages don't need to
// import reflect just to format a type name.
type reflectTypeName = string

// LockedWorldError describes a structural mutation attempted while the
// world is locked by an active query/system (adapted from the teacher's
// storage.go "storage is locked" checks). No function in this package
// returns it: Spawn/Destroy/Alter do not check the lock, and the Enqueue*
// helpers defer the mutation instead.
type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "archtype: world is locked"
}

// ComponentExistsError mirrors the teacher's entity.go guard: adding a
// component an entity already carries is a no-op, not an error, at the
// World.Alter layer, but callers composing higher-level entity handles may
// still want to surface it explicitly.
type ComponentExistsError struct {
	Index ComponentIndex
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("archtype: component %d already exists on entity", e.Index)
}

// ComponentNotFoundError mirrors the teacher's entity.go guard for removing
// a component the entity doesn't carry.
type ComponentNotFoundError struct {
	Index ComponentIndex
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("archtype: component %d does not exist on entity", e.Index)
}
