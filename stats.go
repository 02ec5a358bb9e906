package archtype

import (
	"fmt"
	"reflect"
	"strings"
)

// WorldStats is a point-in-time snapshot of a World's bookkeeping, grounded
// on delaneyj-arche's ecs/stats package, which the pack's other self-hosted
// archetype engine carries for the same diagnostic purpose.
type WorldStats struct {
	Entities       EntityStats
	ComponentCount int
	ComponentTypes []reflect.Type
	Locked         bool
	Archetypes     []ArchetypeStats
}

// EntityStats summarizes the World's entity slot table.
type EntityStats struct {
	Used     int
	Capacity int
	Recycled int
}

// ArchetypeStats summarizes one archetype's table and pending compaction.
type ArchetypeStats struct {
	Name           string
	Size           int
	PendingRemoves int
	ComponentTypes []reflect.Type
}

// Stats snapshots the World's current state. Safe to call at any time; it
// takes no lock of its own and reflects whatever the caller last saw
// (spec.md §5 drivers typically call this only between epochs).
func (w *World) Stats() WorldStats {
	s := WorldStats{
		ComponentCount: len(w.components),
		Locked:         w.Locked(),
	}
	for _, c := range w.components {
		s.ComponentTypes = append(s.ComponentTypes, c.TypeID)
	}

	used := 0
	for _, slot := range w.slots {
		if slot.alive {
			used++
		}
	}
	s.Entities = EntityStats{
		Used:     used,
		Capacity: len(w.slots),
		Recycled: len(w.freeList),
	}

	for _, a := range w.archetypes {
		types := make([]reflect.Type, len(a.sortedSet))
		for i, c := range a.sortedSet {
			types[i] = c.TypeID
		}
		s.Archetypes = append(s.Archetypes, ArchetypeStats{
			Name:           a.name,
			Size:           a.tbl.length(),
			PendingRemoves: len(a.tbl.removes),
			ComponentTypes: types,
		})
	}
	return s
}

func (s WorldStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "World -- Components: %d, Archetypes: %d, Locked: %t\n", s.ComponentCount, len(s.Archetypes), s.Locked)

	names := make([]string, len(s.ComponentTypes))
	for i, t := range s.ComponentTypes {
		names[i] = t.Name()
	}
	fmt.Fprintf(&b, "  Components: %s\n", strings.Join(names, ", "))
	fmt.Fprint(&b, s.Entities.String())

	for _, a := range s.Archetypes {
		fmt.Fprint(&b, a.String())
	}
	return b.String()
}

func (s EntityStats) String() string {
	return fmt.Sprintf("Entities -- Used: %d, Recycled: %d, Capacity: %d\n", s.Used, s.Recycled, s.Capacity)
}

func (s ArchetypeStats) String() string {
	names := make([]string, len(s.ComponentTypes))
	for i, t := range s.ComponentTypes {
		names[i] = t.Name()
	}
	return fmt.Sprintf(
		"Archetype %s -- Entities: %d, PendingRemoves: %d\n  Components: %s\n",
		s.Name, s.Size, s.PendingRemoves, strings.Join(names, ", "),
	)
}
