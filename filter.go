package archtype

import "github.com/TheBitDrifter/mask"

// changeLog is one per-listener-slot append-only record of rows written
// since the slot was registered (spec.md §9 "per-column append-only
// change log, referenced here via listener slots"). A row may appear more
// than once if written repeatedly; the multi-listener iterator
// deduplicates via a seen-set (spec.md §4.6).
type changeLog struct {
	rows []Row
}

// archetypeFilter is the core -> fetch/filter trait boundary of spec.md
// §6: "archetype_filter(archetype) -> bool", rejecting archetypes that lack
// a required (With/Read/Write/Changed/Added) column, carry a Without
// column, or carry none of an Or group's columns. Implemented
// directly against bitsets here rather than as a user-pluggable trait,
// since Go has no ergonomic equivalent of Rust's associated-type Filter
// trait without heavy codegen (see DESIGN.md).
func (qs *QueryState) archetypeFilter(a *Archetype) bool {
	if !a.tbl.bitset.ContainsAll(qs.withMask) {
		return false
	}
	if !a.tbl.bitset.ContainsNone(qs.withoutMask) {
		return false
	}
	for _, group := range qs.orGroups {
		if !a.tbl.bitset.ContainsAny(group) {
			return false
		}
	}
	return true
}

// findRecords is the core -> fetch/filter trait boundary of spec.md §4.6
// step 2: "call archetype.find_records(query_id, listeners, out)". It
// registers one changeLog listener slot per listened component that is
// actually present in a, returning false (meaning: skip this archetype
// entirely) if none of the listened components live in it.
func (qs *QueryState) findRecords(w *World, a *Archetype) (matchedArchetype, bool) {
	if qs.listenerCount() == 0 {
		return matchedArchetype{a: a}, true
	}
	m := matchedArchetype{
		a:           a,
		changedLogs: make(map[ComponentIndex]*changeLog),
		addedLogs:   make(map[ComponentIndex]*changeLog),
	}
	found := false
	for _, ci := range qs.changedComps {
		if !a.Contains(ci) {
			continue
		}
		col := w.columns[ci]
		m.changedLogs[ci] = col.registerChangedListener(a.index)
		found = true
	}
	for _, ci := range qs.addedComps {
		if !a.Contains(ci) {
			continue
		}
		col := w.columns[ci]
		m.addedLogs[ci] = col.registerAddedListener(a.index)
		found = true
	}
	return m, found
}

func (qs *QueryState) listenerCount() int {
	return len(qs.changedComps) + len(qs.addedComps)
}

// registerChangedListener / registerAddedListener materialize the
// per-archetype cell if needed, append a fresh changeLog slot, and return
// it. Every subsequent changed_tick/added_tick on this (column, archetype)
// appends the written row to every registered slot of the matching kind.
func (c *column) registerChangedListener(ar ArchetypeIndex) *changeLog {
	ref := c.blobRef(ar)
	log := &changeLog{}
	ref.bt.changedLogs = append(ref.bt.changedLogs, log)
	return log
}

func (c *column) registerAddedListener(ar ArchetypeIndex) *changeLog {
	ref := c.blobRef(ar)
	log := &changeLog{}
	ref.bt.addedLogs = append(ref.bt.addedLogs, log)
	return log
}

func maskOf(infos []ComponentInfo) mask.Mask {
	var m mask.Mask
	for _, c := range infos {
		m.Mark(uint32(c.Index))
	}
	return m
}
