package archtype

import (
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

// TickInfo controls whether a component's column carries a parallel ticks
// blob. If any of Tick, Changed or Added is set, the column has one and
// records both added and changed ticks; the three flags are not checked
// individually. A component with every flag false pays no tick-write cost.
type TickInfo struct {
	Tick    bool // column carries a parallel ticks blob
	Changed bool // also enables the ticks blob
	Added   bool // also enables the ticks blob
	Removed bool // stored only; no code path reads it and there is no Removed filter
}

// anyTick reports whether the column needs a ticks blob at all.
func (t TickInfo) anyTick() bool {
	return t.Tick || t.Changed || t.Added
}

// DefaultFunc constructs the zero/default value for a component at a given
// memory address, used when a row moves to an archetype that adds the
// component without an explicit value (spec.md Table.init_row).
type DefaultFunc func(ptr unsafe.Pointer)

// DropFunc runs the component's destructor, if any, on a stored value.
type DropFunc func(ptr unsafe.Pointer)

// ComponentInfo is the stable identity of a registered component type: type
// id, size, drop function, optional default constructor, and tick-tracking
// flags. Registered exactly once per type, per World, on first use.
type ComponentInfo struct {
	Index      ComponentIndex
	TypeID     reflect.Type
	Size       uintptr
	Drop       DropFunc
	Default    DefaultFunc
	TickInfo   TickInfo
	zeroSized  bool
	typeID128  [2]uint64
}

// Component is the marker interface every registerable component type
// value-witnesses. Concrete components are typically accessed through an
// AccessibleComponent[T] handle returned by FactoryNewComponent.
type Component interface {
	isArchtypeComponent()
}

// componentIDCounter is a process-wide monotonic counter used to derive a stable
// 128-bit type identity for a reflect.Type the first time it's seen, so
// archetype ids (XOR of component ids) are reproducible across worlds
// sharing the same compiled binary.
var componentIDCounter uint64

var componentTypeIDs sync.Map // reflect.Type -> [2]uint64

func typeID128(t reflect.Type) [2]uint64 {
	if v, ok := componentTypeIDs.Load(t); ok {
		return v.([2]uint64)
	}
	lo := atomic.AddUint64(&componentIDCounter, 1)
	id := [2]uint64{lo, fnv128Hi(t.String())}
	actual, _ := componentTypeIDs.LoadOrStore(t, id)
	return actual.([2]uint64)
}

// fnv128Hi derives a second 64-bit half from the type's name so that two
// distinct types registered in different process runs still XOR to distinct
// archetype ids with overwhelming probability, even though the low half is
// only unique within a single process.
func fnv128Hi(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
