package archtype

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// table is the per-archetype row store: entity vector, list of columns,
// removal queue, and compaction (spec.md §3 "Table", §4.3, §4.4).
type table struct {
	entities []Entity
	// rowTicks is a per-row "last touched" stamp, parallel to entities and
	// remapped in lockstep during settle. It backs the normal (no-listener)
	// iteration mode's self-feedback exclusion (spec.md §4.6 "yield if
	// row.entity ≠ null and row.tick < current_tick"), grounded on
	// original_source/src/query.rs's iter_normal, which gates the same
	// no-listener path on `t > 0 && t < tick` against a row-level tick.
	rowTicks []Tick
	columns  []*column // ascending by ComponentIndex
	colIndex map[ComponentIndex]*column
	bitset   mask.Mask
	removes  []Row
	ar       ArchetypeIndex
}

func newTable(ar ArchetypeIndex, cols []*column) *table {
	sorted := append([]*column(nil), cols...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].info.Index < sorted[j].info.Index })
	t := &table{
		columns:  sorted,
		colIndex: make(map[ComponentIndex]*column, len(sorted)),
		ar:       ar,
		entities: []Entity{{}},   // row 0 reserved, never handed out
		rowTicks: []Tick{nullTick},
	}
	var bs mask.Mask
	for _, c := range sorted {
		bs.Mark(uint32(c.info.Index))
		t.colIndex[c.info.Index] = c
	}
	t.bitset = bs
	return t
}

func (t *table) contains(ci ComponentIndex) bool {
	return t.bitset.ContainsAll(singleBit(ci))
}

func singleBit(ci ComponentIndex) mask.Mask {
	var m mask.Mask
	m.Mark(uint32(ci))
	return m
}

// length returns the number of rows in use, including any still pending
// compaction (row 0 excluded, it is never handed out).
func (t *table) length() int {
	return len(t.entities) - 1
}

// alloc reserves a row by appending to the entity vector, initializes its
// entity slot to the null sentinel, and returns the row. Row ordering is
// strictly increasing; callers must write components, then the real
// entity, last. alloc takes no lock and is not safe for concurrent calls on
// the same table.
func (t *table) alloc() Row {
	row := Row(len(t.entities))
	t.entities = append(t.entities, NullEntity)
	t.rowTicks = append(t.rowTicks, nullTick)
	return row
}

// reserve pre-grows the entity vector for `additional` more rows without
// handing any of them out yet.
func (t *table) reserve(additional int) {
	if cap(t.entities) < len(t.entities)+additional {
		grown := make([]Entity, len(t.entities), len(t.entities)+additional)
		copy(grown, t.entities)
		t.entities = grown

		grownTicks := make([]Tick, len(t.rowTicks), len(t.rowTicks)+additional)
		copy(grownTicks, t.rowTicks)
		t.rowTicks = grownTicks
	}
}

func (t *table) get(row Row) Entity {
	return t.entities[row]
}

func (t *table) set(row Row, e Entity) {
	t.entities[row] = e
}

// tickAt returns row's last-touched tick (nullTick if never written).
func (t *table) tickAt(row Row) Tick {
	return t.rowTicks[row]
}

// touch stamps row with tick if tick is newer, mirroring column.changedTick's
// monotone-only write rule so out-of-order commits can't regress the stamp.
func (t *table) touch(row Row, tick Tick) {
	if tick > t.rowTicks[row] {
		t.rowTicks[row] = tick
	}
}

// initRow writes each column's default value (drop+default funcs are
// required for alter-style insertion into a new archetype) and records an
// add-tick, per spec.md Table.init_row.
func (t *table) initRow(row Row, e Entity, tick Tick) {
	for _, c := range t.columns {
		ref := c.blobRef(t.ar)
		if c.info.Size > 0 {
			if c.info.Default == nil {
				panic(bark.AddTrace(fmt.Errorf("archtype: component %v has no default constructor", c.info.TypeID)))
			}
			cell := ref.bt.data.load(uint32(row))
			c.info.Default(unsafe.Pointer(&cell[0]))
		}
		ref.addedTick(row, tick)
	}
	t.rowTicks[row] = tick
	t.set(row, e)
}

// destroy runs drop functions of all columns, enqueues row into removes,
// nulls the entity slot, and returns the prior entity.
func (t *table) destroy(row Row) Entity {
	prior := t.entities[row]
	for _, c := range t.columns {
		c.dropRow(t.ar, row)
	}
	t.removes = append(t.removes, row)
	t.entities[row] = NullEntity
	return prior
}

// markRemove enqueues row for later removal without running drop
// functions, used by alter when the destination archetype has taken
// ownership of the moved columns.
func (t *table) markRemove(row Row) Entity {
	prior := t.entities[row]
	t.removes = append(t.removes, row)
	t.entities[row] = NullEntity
	return prior
}

// settleStats summarizes one compaction pass, passed by World.Settle to the
// installed EventLogger's LogSettled.
type settleStats struct {
	Removed    int
	NewLength  int
}

// settle runs under exclusive access to the world (no systems active). It
// implements the five-case algorithm of spec.md §4.4 and applies the
// resulting move list to every column, then to the entity vector, then
// remaps rows in the world and truncates.
func (t *table) settle(remap func(e Entity, newRow Row)) settleStats {
	R := len(t.removes)
	L := t.length()
	if R == 0 {
		return settleStats{NewLength: L}
	}
	if R >= L {
		t.truncateAll()
		return settleStats{Removed: R, NewLength: 0}
	}

	var moves []rowMove
	if R == 1 {
		removed := t.removes[0]
		tail := Row(L)
		if removed != tail {
			moves = append(moves, rowMove{src: tail, dst: removed})
		}
	} else if R*log2(R) < L-R {
		moves = t.sparseMoves()
	} else {
		moves = t.denseMoves()
	}

	newLen := L - R
	for _, c := range t.columns {
		// Rows are 1-based (row 0 reserved), so the blob must keep
		// newLen+1 cells for rows 0..newLen.
		c.settle(t.ar, newLen+1, 0, moves)
	}
	for _, mv := range moves {
		e := t.entities[mv.src]
		t.entities[mv.dst] = e
		t.rowTicks[mv.dst] = t.rowTicks[mv.src]
		if !e.IsNull() {
			remap(e, mv.dst)
		}
	}
	t.entities = t.entities[:newLen+1]
	t.rowTicks = t.rowTicks[:newLen+1]
	t.removes = t.removes[:0]
	return settleStats{Removed: R, NewLength: newLen}
}

func (t *table) truncateAll() {
	for _, c := range t.columns {
		c.settle(t.ar, 0, 0, nil)
	}
	t.entities = t.entities[:1]
	t.rowTicks = t.rowTicks[:1]
	t.removes = t.removes[:0]
}

// sparseMoves implements the "sparse removes" branch: copy removal rows
// into a working buffer, sort ascending, then two-pointer walk from both
// ends producing (tail_live, removed_slot) pairs, skipping the case where
// the tail itself is being removed.
func (t *table) sparseMoves() []rowMove {
	removed := append([]Row(nil), t.removes...)
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	removedSet := make(map[Row]bool, len(removed))
	for _, r := range removed {
		removedSet[r] = true
	}

	var moves []rowMove
	tail := Row(t.length())
	lo := 0
	for lo < len(removed) {
		for removedSet[tail] {
			tail--
		}
		dst := removed[lo]
		if dst >= tail {
			break
		}
		moves = append(moves, rowMove{src: tail, dst: dst})
		tail--
		lo++
	}
	return moves
}

// denseMoves implements the "dense removes" branch: materialize a bitset
// of removed rows, walk removed indices ascending, for each scan the tail
// downward until a live row is found, emit a move pair.
func (t *table) denseMoves() []rowMove {
	L := t.length()
	removedAt := make([]bool, L+1)
	for _, r := range t.removes {
		removedAt[r] = true
	}
	removed := append([]Row(nil), t.removes...)
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	var moves []rowMove
	tail := Row(L)
	for _, dst := range removed {
		for tail > dst && removedAt[tail] {
			tail--
		}
		if tail <= dst {
			break
		}
		moves = append(moves, rowMove{src: tail, dst: dst})
		tail--
	}
	return moves
}

func log2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

