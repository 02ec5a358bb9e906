package archtype

import (
	"encoding/binary"
	"unsafe"
)

// blobTicks pairs one archetype's data blob with its parallel ticks blob,
// per spec.md §3 "Column". Shared Columns index into a map of these keyed
// by ArchetypeIndex; the archetype itself is never referenced back from
// here (spec.md §9 "cyclic handles").
type blobTicks struct {
	data  *blob
	ticks *blob
	// addedLogs/changedLogs are the listener slots registered by
	// QueryState.findRecords (spec.md §4.6 step 2, §6 "Listener slot").
	// Every added_tick/changed_tick append of a written row.
	addedLogs   []*changeLog
	changedLogs []*changeLog
}

// blobRef is a materialized view of one (archetype, column) cell: the data
// blob, the ticks blob, and the component's type info, per
// original_source/src/column.rs's BlobRef.
type blobRef struct {
	bt   *blobTicks
	info *ComponentInfo
}

// column is per-component-type storage, sliced by archetype (spec.md §4.2).
// A column is shared across every archetype containing its component type.
type column struct {
	info     ComponentInfo
	byArch   map[ArchetypeIndex]*blobTicks
}

func newColumn(info ComponentInfo) *column {
	return &column{
		info:   info,
		byArch: make(map[ArchetypeIndex]*blobTicks),
	}
}

// blobRef materializes (allocating on first touch) the per-archetype cell
// for ar and returns a view over it.
func (c *column) blobRef(ar ArchetypeIndex) blobRef {
	bt, ok := c.byArch[ar]
	if !ok {
		bt = &blobTicks{data: newBlob(c.info.Size, Config.defaultRootCapacity)}
		if c.info.TickInfo.anyTick() {
			bt.ticks = newBlob(4, Config.defaultRootCapacity)
		}
		c.byArch[ar] = bt
	}
	return blobRef{bt: bt, info: &c.info}
}

// get returns a typed pointer to an already-initialized cell. The caller
// asserts T matches info.TypeID; this is the one unchecked boundary spec.md
// §4.2 calls out ("why copy bytes rather than typed moves").
func get[T any](r blobRef, row Row) *T {
	cell := r.bt.data.get(uint32(row))
	return (*T)(unsafe.Pointer(&cell[0]))
}

// getMut is identical to get; Go has no separate mutable-borrow type, the
// distinction exists only at the call site's intent.
func getMut[T any](r blobRef, row Row) *T {
	return get[T](r, row)
}

// write returns a typed pointer to row's cell for the caller to store into,
// growing the blob if needed.
func write[T any](r blobRef, row Row) *T {
	cell := r.bt.data.load(uint32(row))
	return (*T)(unsafe.Pointer(&cell[0]))
}

func (r blobRef) tickAt(row Row) Tick {
	if r.bt.ticks == nil {
		return nullTick
	}
	cell := r.bt.ticks.get(uint32(row))
	return Tick(binary.LittleEndian.Uint32(cell))
}

// addedTick unconditionally records tick, per spec.md §4.7, and appends row
// to every registered added-listener slot.
func (r blobRef) addedTick(row Row, tick Tick) {
	if r.bt.ticks == nil {
		return
	}
	cell := r.bt.ticks.load(uint32(row))
	binary.LittleEndian.PutUint32(cell, uint32(tick))
	for _, log := range r.bt.addedLogs {
		log.rows = append(log.rows, row)
	}
}

// changedTick only advances the stored tick, never regresses it, per
// spec.md §4.7 — idempotent for ticks <= the recorded tick. Appends row to
// every registered changed-listener slot only when the tick actually
// advances, so an idempotent call doesn't duplicate log entries.
func (r blobRef) changedTick(row Row, tick Tick) {
	if r.bt.ticks == nil {
		return
	}
	cell := r.bt.ticks.load(uint32(row))
	old := Tick(binary.LittleEndian.Uint32(cell))
	if old >= tick {
		return
	}
	binary.LittleEndian.PutUint32(cell, uint32(tick))
	for _, log := range r.bt.changedLogs {
		log.rows = append(log.rows, row)
	}
}

// dropRow invokes the registered drop function, if any, on an
// already-initialized row.
func (c *column) dropRow(ar ArchetypeIndex, row Row) {
	if c.info.Drop == nil {
		return
	}
	bt, ok := c.byArch[ar]
	if !ok {
		return
	}
	cell := bt.data.get(uint32(row))
	c.info.Drop(unsafe.Pointer(&cell[0]))
}

// rowMove describes one (src, dst) copy applied during compaction.
type rowMove struct {
	src, dst Row
}

// settle applies a batch of row moves for this column within archetype ar,
// copying ticks in lockstep when tracked, then asks the blob to merge to
// contiguous capacity len+additional (spec.md §4.2 Column.settle).
func (c *column) settle(ar ArchetypeIndex, length, additional int, moves []rowMove) {
	bt, ok := c.byArch[ar]
	if !ok {
		return
	}
	if c.info.Size > 0 {
		for _, mv := range moves {
			src := bt.data.get(uint32(mv.src))
			dst := bt.data.load(uint32(mv.dst))
			copy(dst, src)
		}
	}
	if bt.ticks != nil {
		for _, mv := range moves {
			src := bt.ticks.get(uint32(mv.src))
			dst := bt.ticks.load(uint32(mv.dst))
			copy(dst, src)
		}
	}
	bt.data.settle(length, additional)
	if bt.ticks != nil {
		bt.ticks.settle(length, additional)
	}
	// Listener slots are drained by their query's Iter before the
	// scheduler calls World.Settle (spec.md §5: settle only runs when no
	// system is active); any rows left here would be stale after
	// row-renumbering, so they're cleared rather than remapped.
	for _, log := range bt.addedLogs {
		log.rows = log.rows[:0]
	}
	for _, log := range bt.changedLogs {
		log.rows = log.rows[:0]
	}
}
