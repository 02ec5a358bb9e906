package archtype

import "github.com/TheBitDrifter/mask"

// matchedArchetype is one entry of a QueryState's per-archetype cache
// (spec.md §4.6 "vec: ordered sequence of (archetype, listener_slots)").
type matchedArchetype struct {
	a           *Archetype
	changedLogs map[ComponentIndex]*changeLog
	addedLogs   map[ComponentIndex]*changeLog
}

// pendingRemove is one deferred deletion accumulated during a system's run
// (spec.md §4.6 "removes: deferred deletions accumulated during this
// system's run").
type pendingRemove struct {
	archetype ArchetypeIndex
	row       Row
}

// QueryState is a per-system cache of matched archetypes plus the
// change-tracking bookkeeping needed to pick an iteration strategy
// (spec.md §4.6). Constructed once per system via NewQueryState and reused
// across epochs; Align (called automatically by Iter) keeps it current as
// the World grows new archetypes.
type QueryState struct {
	w *World

	rwIndex int // position in the system's declared read/write set (spec.md §4.6, §6 SystemMeta.add_rw)

	withMask, withoutMask mask.Mask
	orGroups              []mask.Mask
	reads, writes         []ComponentIndex
	withoutComps          []ComponentIndex
	changedComps          []ComponentIndex
	addedComps            []ComponentIndex

	vec          []matchedArchetype
	archetypeLen int
	lastRun      Tick

	removes []pendingRemove
}

// QueryOption configures a QueryState at construction (functional-options,
// since Go lacks the variadic generic Fetch/Filter tuple Rust ECS engines
// use — see DESIGN.md for why this module generalizes the teacher's
// And/Or/Not-over-Component evaluator instead of replicating that).
type QueryOption func(*QueryState)

// With requires every listed component to be present in a matched
// archetype, without granting read/write access to it (a pure filter,
// spec.md's `With<T>`).
func With(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withMask.Mark(uint32(c.Index))
		}
	}
}

// Without requires every listed component to be absent (spec.md's
// `Without<T>`).
func Without(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withoutMask.Mark(uint32(c.Index))
			qs.withoutComps = append(qs.withoutComps, c.Index)
		}
	}
}

// Or requires at least one of the listed components to be present (the
// `Or<(Filter...)>` combinator surfaced by original_source/src/filter.rs,
// supplemented beyond the distilled spec per SPEC_FULL.md §10).
func Or(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		qs.orGroups = append(qs.orGroups, maskOf(infos))
	}
}

// Read declares read access to the listed components (also implies With).
func Read(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withMask.Mark(uint32(c.Index))
			qs.reads = append(qs.reads, c.Index)
		}
	}
}

// Write declares mutable access to the listed components (also implies
// With).
func Write(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withMask.Mark(uint32(c.Index))
			qs.writes = append(qs.writes, c.Index)
		}
	}
}

// Changed requires a listener slot tracking writes to the listed
// components (spec.md's `Changed<T>`); also implies With.
func Changed(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withMask.Mark(uint32(c.Index))
			qs.changedComps = append(qs.changedComps, c.Index)
		}
	}
}

// Added requires a listener slot tracking inserts of the listed components
// (spec.md's implied `Added<T>`, per §4.7); also implies With.
func Added(infos ...ComponentInfo) QueryOption {
	return func(qs *QueryState) {
		for _, c := range infos {
			qs.withMask.Mark(uint32(c.Index))
			qs.addedComps = append(qs.addedComps, c.Index)
		}
	}
}

// NewQueryState builds a QueryState and performs its first alignment
// against the world's existing archetypes. If the query declares any
// Changed/Added components, it also registers itself as an
// ArchetypeInitListener so future archetypes install listener slots
// synchronously at creation time, before any write can reach them
// (spec.md §5 ordering guarantee, end-to-end scenario 6).
func NewQueryState(w *World, opts ...QueryOption) *QueryState {
	qs := &QueryState{w: w}
	for _, opt := range opts {
		opt(qs)
	}
	if qs.listenerCount() > 0 {
		w.AddListener(qs)
	}
	qs.Align(w)
	return qs
}

// OnArchetypeInit implements ArchetypeInitListener: called synchronously
// by World.ArchetypeFor for every newly created archetype, before that
// call returns, so a Changed/Added listener slot is always present before
// the creating operation can write to it.
func (qs *QueryState) OnArchetypeInit(w *World, a *Archetype) {
	qs.tryMatch(w, a)
	if int(a.index) >= qs.archetypeLen {
		qs.archetypeLen = int(a.index) + 1
	}
}

// Align implements spec.md §4.6: if the world has grown its archetype
// array since this QueryState last looked, walk the new tail and test
// each for inclusion. Called automatically before iteration; listener
// queries will typically find nothing new here since OnArchetypeInit
// already caught it, but Align keeps non-listener queries current and
// remains safe to call redundantly.
func (qs *QueryState) Align(w *World) {
	all := w.Archetypes()
	for i := qs.archetypeLen; i < len(all); i++ {
		qs.tryMatch(w, all[i])
	}
	qs.archetypeLen = len(all)
}

func (qs *QueryState) tryMatch(w *World, a *Archetype) {
	for _, m := range qs.vec {
		if m.a.index == a.index {
			return
		}
	}
	if !qs.archetypeFilter(a) {
		return
	}
	m, ok := qs.findRecords(w, a)
	if qs.listenerCount() > 0 && !ok {
		return
	}
	qs.vec = append(qs.vec, m)
}

// SetRWIndex records this query's position in its system's declared
// read/write set, so a SystemMeta-consuming scheduler can correlate
// RWArchetype callbacks back to the query that produced them.
func (qs *QueryState) SetRWIndex(i int) { qs.rwIndex = i }

// RWIndex returns the index last set by SetRWIndex.
func (qs *QueryState) RWIndex() int { return qs.rwIndex }

// canRead reports whether ci was declared via Read or Write (spec.md §7:
// "component requested that was not declared → error returned"). Write
// implies read since a system that can mutate a component can certainly
// observe it.
func (qs *QueryState) canRead(ci ComponentIndex) bool {
	for _, r := range qs.reads {
		if r == ci {
			return true
		}
	}
	for _, w := range qs.writes {
		if w == ci {
			return true
		}
	}
	return false
}

// canWrite reports whether ci was declared via Write.
func (qs *QueryState) canWrite(ci ComponentIndex) bool {
	for _, w := range qs.writes {
		if w == ci {
			return true
		}
	}
	return false
}

// EnqueueRemove defers a row's removal until ApplyRemoves is called
// (spec.md §4.6: "after each system completes, accumulated removes are
// applied").
func (qs *QueryState) EnqueueRemove(a *Archetype, row Row) {
	qs.removes = append(qs.removes, pendingRemove{archetype: a.index, row: row})
}

// ApplyRemoves drops every deferred row from its source archetype,
// running drop functions and enqueuing the row into that table's removal
// queue for the next compaction.
func (qs *QueryState) ApplyRemoves(w *World) {
	for _, r := range qs.removes {
		a := w.archetypes[r.archetype]
		e := a.tbl.entities[r.row]
		if e.IsNull() {
			continue
		}
		a.tbl.destroy(r.row)
		w.freeSlot(e)
	}
	qs.removes = qs.removes[:0]
}
