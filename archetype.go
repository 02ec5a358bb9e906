package archtype

import (
	"sort"
	"strings"
)

// ArchetypeID is the 128-bit identity derived as the XOR of component
// type-ids over the sorted component set (spec.md §3 "Archetype identity").
// Collisions are broken by verifying the full sorted component set on
// lookup (see World.ArchetypeFor).
type ArchetypeID [2]uint64

func (a ArchetypeID) xorWith(typeID [2]uint64) ArchetypeID {
	return ArchetypeID{a[0] ^ typeID[0], a[1] ^ typeID[1]}
}

func archetypeIDOf(components []ComponentInfo) ArchetypeID {
	var id ArchetypeID
	for _, c := range components {
		id = id.xorWith(c.typeID128)
	}
	return id
}

// Archetype is the immutable identity of an equivalence class of entities:
// a sorted component set, a 128-bit id, and a diagnostic name, wrapping a
// Table (spec.md §4.5). An archetype's component set never changes for its
// lifetime; its `ready` flag becomes true once every query needing
// change-tracking listeners on it has registered them.
type Archetype struct {
	id        ArchetypeID
	name      string
	index     ArchetypeIndex
	tbl       *table
	ready     bool
	sortedSet []ComponentInfo // ascending by ComponentIndex, defines identity
}

// ID returns the archetype's 128-bit identity.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Name returns the diagnostic name "T1+T2+...+Tn", components sorted by
// ComponentIndex (spec.md §6). Used only for diagnostics.
func (a *Archetype) Name() string { return a.name }

// Index returns the archetype's position in the World's archetype array.
func (a *Archetype) Index() ArchetypeIndex { return a.index }

// Ready reports whether every listener-needing query has registered its
// slots on this archetype (spec.md §4.5). Inserts are always safe; a
// listener just won't see events logged before it became ready — which the
// design tolerates because listeners register synchronously at creation,
// before any write (spec.md §5, end-to-end scenario 6).
func (a *Archetype) Ready() bool { return a.ready }

// Contains reports whether ci is part of this archetype's component set.
func (a *Archetype) Contains(ci ComponentIndex) bool {
	return a.tbl.contains(ci)
}

// Len returns the number of live-or-pending-compaction rows.
func (a *Archetype) Len() int { return a.tbl.length() }

func buildArchetypeName(components []ComponentInfo) string {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = c.TypeID.Name()
	}
	return strings.Join(names, "+")
}

func newArchetypeHandle(index ArchetypeIndex, components []ComponentInfo, cols []*column) *Archetype {
	sorted := append([]ComponentInfo(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	return &Archetype{
		id:        archetypeIDOf(sorted),
		name:      buildArchetypeName(sorted),
		index:     index,
		tbl:       newTable(index, cols),
		sortedSet: sorted,
	}
}
