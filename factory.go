package archtype

import (
	"reflect"
	"unsafe"
)

// factory implements the factory pattern for archtype components, mirroring
// the teacher's factory.go.
type factory struct{}

// Factory is the global factory instance for creating archtype worlds,
// components, query states, and caches.
var Factory factory

// NewWorld creates a new empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}

// NewQueryState builds a QueryState against w with the given options.
func (f factory) NewQueryState(w *World, opts ...QueryOption) *QueryState {
	return NewQueryState(w, opts...)
}

// Dropper is implemented by components that own a resource needing
// explicit cleanup when their row is destroyed or overwritten by alter
// (spec.md §4.2 "drop_row"). Most components are plain data and don't
// implement it.
type Dropper interface {
	ArchtypeDrop()
}

// FactoryNewComponent registers T against w (idempotent per type) and
// returns an ergonomic typed handle. Every component gets a trivial
// default constructor that zeroes its memory — Go's zero value is always
// a valid instance — and a drop function only if T implements Dropper.
func FactoryNewComponent[T any](w *World) AccessibleComponent[T] {
	var zero T
	t := reflect.TypeOf(zero)
	size := unsafe.Sizeof(zero)

	var drop DropFunc
	if _, ok := any(&zero).(Dropper); ok {
		drop = func(ptr unsafe.Pointer) {
			any((*T)(ptr)).(Dropper).ArchtypeDrop()
		}
	}
	def := func(ptr unsafe.Pointer) {
		*(*T)(ptr) = *new(T)
	}

	info := w.RegisterComponent(t, size, drop, def, TickInfo{Tick: true, Changed: true, Added: true})
	return AccessibleComponent[T]{info: info, w: w}
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
