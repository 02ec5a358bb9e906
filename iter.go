package archtype

// iterMode picks one of the three iteration shapes of spec.md §4.6, chosen
// once per Iter by the QueryState's listener count.
type iterMode int

const (
	modeNormal iterMode = iota
	modeSingleListener
	modeMultiListener
)

// Iter is a change-tracking iterator over a QueryState's matched
// archetypes (spec.md §3 "QueryState / Iter"). Archetypes are walked in
// reverse registration order; within an archetype, rows are walked
// ascending (spec.md end-to-end scenario 1).
type Iter struct {
	qs   *QueryState
	w    *World
	mode iterMode

	lastRun Tick
	current Tick

	archIdx int // index into qs.vec, decreasing
	row     int // 1-based row within the current archetype (normal mode)

	logRows []Row // single/multi-listener mode: remaining rows of the active log(s)
	logIdx  int
	seen    map[Entity]bool // multi-listener dedup set, reset per archetype

	curArch   *Archetype
	curEntity Entity
	curRow    Row
	valid     bool
}

// Iter starts a new iteration pass. It calls Align first (cheap no-op for
// listener queries whose archetypes already arrived via OnArchetypeInit),
// then snapshots the (last_run, current) tick window this pass will use
// for Changed/Added filtering (spec.md §4.7).
func (qs *QueryState) Iter() *Iter {
	qs.Align(qs.w)

	mode := modeNormal
	switch {
	case len(qs.changedComps)+len(qs.addedComps) > 1:
		mode = modeMultiListener
	case len(qs.changedComps)+len(qs.addedComps) == 1:
		mode = modeSingleListener
	}

	it := &Iter{
		qs:      qs,
		w:       qs.w,
		mode:    mode,
		lastRun: qs.lastRun,
		current: qs.w.Tick(),
		archIdx: len(qs.vec) - 1,
	}
	qs.lastRun = it.current
	return it
}

// Next advances to the next matching row, returning false when exhausted.
func (it *Iter) Next() bool {
	switch it.mode {
	case modeNormal:
		return it.nextNormal()
	case modeSingleListener:
		return it.nextListener(false)
	default:
		return it.nextListener(true)
	}
}

// nextNormal walks archetypes in reverse; within each, every row ascending;
// yields rows whose entity slot is non-null and whose row tick is older
// than the current tick (spec.md §4.6: "yield if row.entity ≠ null and
// row.tick < current_tick"), grounded on original_source/src/query.rs's
// iter_normal (`t > 0 && t < tick`) — self-feedback exclusion applies to
// plain queries too, not only Changed/Added ones.
func (it *Iter) nextNormal() bool {
	for it.archIdx >= 0 {
		m := it.qs.vec[it.archIdx]
		if it.curArch != m.a {
			it.curArch = m.a
			it.row = 1
		}
		for it.row <= m.a.tbl.length() {
			row := Row(it.row)
			it.row++
			e := m.a.tbl.get(row)
			if e.IsNull() {
				continue
			}
			if t := m.a.tbl.tickAt(row); t == nullTick || t >= it.current {
				continue
			}
			it.curEntity = e
			it.curRow = row
			it.valid = true
			return true
		}
		it.archIdx--
		it.curArch = nil
	}
	it.valid = false
	return false
}

// nextListener iterates the change log(s) of the listened column(s) per
// archetype. In multi-listener mode a per-archetype seen-set deduplicates
// rows appearing in more than one log (spec.md §4.6).
func (it *Iter) nextListener(multi bool) bool {
	for it.archIdx >= 0 {
		m := it.qs.vec[it.archIdx]
		if it.curArch != m.a {
			it.curArch = m.a
			it.logRows = it.collectLogRows(m)
			it.logIdx = 0
			if multi {
				it.seen = make(map[Entity]bool)
			}
		}
		for it.logIdx < len(it.logRows) {
			row := it.logRows[it.logIdx]
			it.logIdx++
			e := m.a.tbl.get(row)
			if e.IsNull() {
				continue
			}
			if multi {
				if it.seen[e] {
					continue
				}
				it.seen[e] = true
			}
			if !it.tickMatches(m, row) {
				continue
			}
			it.curEntity = e
			it.curRow = row
			it.valid = true
			return true
		}
		it.archIdx--
		it.curArch = nil
	}
	it.valid = false
	return false
}

// collectLogRows flattens every listened log's rows for this archetype
// into one slice, draining the underlying logs so a subsequent pass starts
// clean (per column.go's settle-time clearing contract, logs accumulate
// only within one epoch between drains).
func (it *Iter) collectLogRows(m matchedArchetype) []Row {
	var rows []Row
	for _, log := range m.changedLogs {
		rows = append(rows, log.rows...)
		log.rows = log.rows[:0]
	}
	for _, log := range m.addedLogs {
		rows = append(rows, log.rows...)
		log.rows = log.rows[:0]
	}
	return rows
}

// tickMatches applies spec.md §4.7's window test: a row is included if at
// least one listened component's tick advanced past lastRun, is not the
// "never initialized" sentinel 0, and wasn't written in this very pass
// ("just written by me", preventing self-feedback). A row can appear in
// more than one listened column's log; OR semantics match the combinator
// reading of Changed<A>/Changed<B> as "either changed".
func (it *Iter) tickMatches(m matchedArchetype, row Row) bool {
	for ci := range m.changedLogs {
		if it.columnTickMatches(m.a, ci, row) {
			return true
		}
	}
	for ci := range m.addedLogs {
		if it.columnTickMatches(m.a, ci, row) {
			return true
		}
	}
	return false
}

func (it *Iter) columnTickMatches(a *Archetype, ci ComponentIndex, row Row) bool {
	col := it.w.columns[ci]
	ref := col.blobRef(a.index)
	t := ref.tickAt(row)
	return t != nullTick && t != it.current && t > it.lastRun
}

// Entity returns the entity at the iterator's current position.
func (it *Iter) Entity() Entity { return it.curEntity }

// Archetype returns the archetype at the iterator's current position.
func (it *Iter) Archetype() *Archetype { return it.curArch }

// Row returns the row at the iterator's current position.
func (it *Iter) Row() Row { return it.curRow }

// EnqueueRemove defers destruction of the entity at the current position
// until the query's ApplyRemoves runs (spec.md §4.6).
func (it *Iter) EnqueueRemove() {
	it.qs.EnqueueRemove(it.curArch, it.curRow)
}
