package archtype

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// entitySlot is the World's mapping from an entity's slot to its current
// location, per spec.md §3 "Entity": the slot maps to (archetype_index,
// row); a live entity's (ar, row) always points to an initialized row
// whose stored entity equals the handle.
type entitySlot struct {
	generation uint32
	archetype  ArchetypeIndex
	row        Row
	alive      bool
}

// ArchetypeInitListener is notified synchronously, before any data is
// written into a freshly created archetype, so it may register
// change-tracking listener slots first (spec.md §3 Lifecycle, §5 ordering
// guarantees, end-to-end scenario 6).
type ArchetypeInitListener interface {
	OnArchetypeInit(w *World, a *Archetype)
}

// World is the registry of components, archetypes, and entities, plus the
// archetype-creation event bus (spec.md §3 "World").
type World struct {
	tick Tick

	components   []ComponentInfo
	componentIdx map[reflect.Type]ComponentIndex

	archetypes     []*Archetype
	archetypeByID  map[ArchetypeID][]ArchetypeIndex // collision bucket, verified by full set
	columns        map[ComponentIndex]*column

	slots    []entitySlot
	freeList []uint32

	listeners []ArchetypeInitListener

	// archetypeNames is a diagnostic by-name lookup (spec.md §6: "Archetype
	// name ... used only for diagnostics"), registered as each archetype is
	// created. Wires the generic Cache/SimpleCache registry (cache.go) into
	// an actual lookup this module needs, the same role the teacher's
	// generic cache plays for its own component/archetype registries.
	archetypeNames Cache[ArchetypeIndex]

	logger EventLogger

	locks mask.Mask256
	queue entityOperationsQueue
}

// archetypeNameCacheCapacity bounds the by-name archetype cache. Generous
// enough that no realistic single-world archetype population exhausts it
// (see blob.go's defaultMaxTailBuckets comment for the same style of headroom
// argument).
const archetypeNameCacheCapacity = 1 << 16

// EventLogger is an optional structured-diagnostics hook (SPEC_FULL.md
// ambient stack: "Logging"). When set, it receives archetype-creation and
// compaction events; the core never logs by default since it sits on a hot
// path.
type EventLogger interface {
	LogArchetypeCreated(a *Archetype)
	LogSettled(a *Archetype, stats settleStats)
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{
		tick:           1, // tick 0 is nullTick ("never written"), never a write's tick
		componentIdx:   make(map[reflect.Type]ComponentIndex),
		archetypeByID:  make(map[ArchetypeID][]ArchetypeIndex),
		columns:        make(map[ComponentIndex]*column),
		slots:          []entitySlot{{}}, // slot 0 reserved, entity{0,0} is NullEntity
		archetypeNames: FactoryNewCache[ArchetypeIndex](archetypeNameCacheCapacity),
	}
}

// SetLogger installs an optional diagnostics sink.
func (w *World) SetLogger(l EventLogger) { w.logger = l }

// Locked reports whether any lock bit is currently held. A locked world
// defers Spawn/Destroy/Alter requests submitted through the operation
// queue rather than applying them immediately, so a system holding an
// Iter never observes structural changes out from under it mid-pass
// (spec.md §5, mirroring the teacher's storage.go lock gate).
func (w *World) Locked() bool {
	return !w.locks.IsEmpty()
}

// AddLock marks bit held, e.g. one bit per active Iter. A scheduler
// calls this before handing a system its iterators.
func (w *World) AddLock(bit uint32) {
	w.locks.Mark(bit)
}

// RemoveLock releases bit and, once no lock remains, drains every
// operation queued while the world was locked.
func (w *World) RemoveLock(bit uint32) {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		if err := w.queue.ProcessAll(w); err != nil {
			panic(bark.AddTrace(fmt.Errorf("archtype: error processing queued operations: %w", err)))
		}
	}
}

// EnqueueSpawn defers Spawn until the world is fully unlocked, running it
// immediately otherwise.
func (w *World) EnqueueSpawn(components []ComponentInfo) {
	if !w.Locked() {
		w.Spawn(components)
		return
	}
	w.queue.Enqueue(spawnOperation{components: components})
}

// EnqueueDestroy defers Destroy until the world is fully unlocked, running
// it immediately otherwise.
func (w *World) EnqueueDestroy(e Entity) {
	if !w.Locked() {
		_ = w.Destroy(e)
		return
	}
	w.queue.Enqueue(destroyOperation{entity: e, generation: e.generation})
}

// EnqueueAlter defers Alter until the world is fully unlocked, running it
// immediately otherwise.
func (w *World) EnqueueAlter(e Entity, ops []alterOp) {
	if !w.Locked() {
		_ = w.Alter(e, ops)
		return
	}
	w.queue.Enqueue(alterOperation{entity: e, generation: e.generation, ops: ops})
}

// Tick returns the current logical tick.
func (w *World) Tick() Tick { return w.tick }

// Advance increments the global tick once per epoch. Called by the
// external scheduler between runs, never by a system.
func (w *World) Advance() Tick {
	w.tick++
	return w.tick
}

// AddListener registers a query (or other subscriber) to be notified
// synchronously whenever a new archetype is created.
func (w *World) AddListener(l ArchetypeInitListener) {
	w.listeners = append(w.listeners, l)
}

// RegisterComponent assigns a dense ComponentIndex to t on first
// registration and returns its (now-registered) info. Idempotent.
func (w *World) RegisterComponent(t reflect.Type, size uintptr, drop DropFunc, def DefaultFunc, tickInfo TickInfo) ComponentInfo {
	if idx, ok := w.componentIdx[t]; ok {
		return w.components[idx]
	}
	idx := ComponentIndex(len(w.components))
	info := ComponentInfo{
		Index:     idx,
		TypeID:    t,
		Size:      size,
		Drop:      drop,
		Default:   def,
		TickInfo:  tickInfo,
		zeroSized: size == 0,
		typeID128: typeID128(t),
	}
	w.components = append(w.components, info)
	w.componentIdx[t] = idx
	w.columns[idx] = newColumn(info)
	return info
}

func (w *World) componentInfo(ci ComponentIndex) ComponentInfo {
	return w.components[ci]
}

// ArchetypeFor returns the (possibly newly created) archetype whose
// component set exactly matches components, creating it if absent. On
// creation, every registered ArchetypeInitListener is notified
// synchronously before this call returns (spec.md §5).
func (w *World) ArchetypeFor(components []ComponentInfo) *Archetype {
	sorted := append([]ComponentInfo(nil), components...)
	sortByIndex(sorted)
	id := archetypeIDOf(sorted)

	for _, idx := range w.archetypeByID[id] {
		if sameComponentSet(w.archetypes[idx].sortedSet, sorted) {
			return w.archetypes[idx]
		}
	}

	index := ArchetypeIndex(len(w.archetypes))
	cols := make([]*column, len(sorted))
	for i, c := range sorted {
		cols[i] = w.columns[c.Index]
	}
	a := newArchetypeHandle(index, sorted, cols)
	w.archetypes = append(w.archetypes, a)
	w.archetypeByID[id] = append(w.archetypeByID[id], index)
	// Diagnostics-only: an exhausted name cache never blocks storage.
	_, _ = w.archetypeNames.Register(a.name, index)

	if Config.archetypeEvents.Created != nil {
		Config.archetypeEvents.Created(a)
	}

	for _, l := range w.listeners {
		l.OnArchetypeInit(w, a)
	}
	a.ready = true

	if Config.archetypeEvents.Ready != nil {
		Config.archetypeEvents.Ready(a)
	}

	if w.logger != nil {
		w.logger.LogArchetypeCreated(a)
	}
	return a
}

// ArchetypeByName resolves the diagnostic name built by buildArchetypeName
// back to its Archetype, via the archetypeNames cache (spec.md §6:
// archetype names are "used only for diagnostics").
func (w *World) ArchetypeByName(name string) (*Archetype, bool) {
	ci, ok := w.archetypeNames.GetIndex(name)
	if !ok {
		return nil, false
	}
	idx := w.archetypeNames.GetItem(ci)
	return w.archetypes[*idx], true
}

func sortByIndex(cs []ComponentInfo) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1].Index > cs[j].Index; j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}

func sameComponentSet(a, b []ComponentInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index {
			return false
		}
	}
	return true
}

// Archetypes returns the world's archetype array. The slice is append-only
// during an epoch; indices, once assigned, are stable for the world's
// lifetime (spec.md §5).
func (w *World) Archetypes() []*Archetype { return w.archetypes }

// Spawn creates a new entity with the given components in the appropriate
// archetype, per the two-phase insert protocol of spec.md §3 Lifecycle:
// components are written first, the real entity written into the slot
// last, so no reader ever observes a half-built row.
func (w *World) Spawn(components []ComponentInfo) Entity {
	a := w.ArchetypeFor(components)
	row := a.tbl.alloc()

	slotIdx := w.allocSlot()
	e := Entity{generation: w.slots[slotIdx].generation, slot: slotIdx}

	a.tbl.initRow(row, e, w.tick)

	w.slots[slotIdx].archetype = a.index
	w.slots[slotIdx].row = row
	w.slots[slotIdx].alive = true
	return e
}

func (w *World) allocSlot() uint32 {
	if n := len(w.freeList); n > 0 {
		idx := w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
		return idx
	}
	idx := uint32(len(w.slots))
	w.slots = append(w.slots, entitySlot{})
	return idx
}

// Lookup resolves a live entity handle to its (archetype, row). Returns
// NoSuchEntity if the handle is stale or was never allocated.
func (w *World) Lookup(e Entity) (*Archetype, Row, error) {
	if e.IsNull() || int(e.slot) >= len(w.slots) {
		return nil, 0, NoSuchEntityError{Entity: e}
	}
	s := w.slots[e.slot]
	if !s.alive || s.generation != e.generation {
		return nil, 0, NoSuchEntityError{Entity: e}
	}
	return w.archetypes[s.archetype], s.row, nil
}

// Destroy runs drop functions for e's row, enqueues it for compaction, and
// recycles its slot's generation so stale handles never alias a new entity
// occupying the same slot.
func (w *World) Destroy(e Entity) error {
	a, row, err := w.Lookup(e)
	if err != nil {
		return err
	}
	a.tbl.destroy(row)
	w.freeSlot(e)
	return nil
}

func (w *World) freeSlot(e Entity) {
	s := &w.slots[e.slot]
	s.alive = false
	s.generation++
	w.freeList = append(w.freeList, e.slot)
}

// replaceRow is called by Table.settle when a move pair relocates a live
// entity to a new row within the same archetype.
func (w *World) replaceRow(e Entity, newRow Row) {
	if int(e.slot) >= len(w.slots) {
		return
	}
	w.slots[e.slot].row = newRow
}

// Settle runs compaction on every table. Must only be called when no
// system is active (spec.md §4.4, §5).
func (w *World) Settle() {
	for _, a := range w.archetypes {
		stats := a.tbl.settle(w.replaceRow)
		if w.logger != nil {
			w.logger.LogSettled(a, stats)
		}
	}
}

// Alter migrates an entity to a new archetype by applying a set of
// component adds/removes, per spec.md §4.5. Moved/removed column values
// are transferred or dropped according to the computed alter plan; added
// columns receive their default value exactly as a fresh Spawn would.
func (w *World) Alter(e Entity, ops []alterOp) error {
	a, row, err := w.Lookup(e)
	if err != nil {
		return err
	}
	plan := computeAlterPlan(a.sortedSet, ops, false, w.componentInfo)
	dest := w.ArchetypeFor(plan.Dest)
	if dest.index == a.index {
		return nil
	}

	destRow := dest.tbl.alloc()

	for _, info := range plan.Moving {
		srcCol := w.columns[info.Index]
		dstCol := w.columns[info.Index]
		moveCell(srcCol, a.index, row, dstCol, dest.index, destRow)
		dstCol.blobRef(dest.index).addedTick(destRow, w.tick)
	}
	for _, info := range plan.Adding {
		dstCol := w.columns[info.Index]
		ref := dstCol.blobRef(dest.index)
		if info.Size > 0 {
			if info.Default == nil {
				panic(bark.AddTrace(fmt.Errorf("archtype: component %v has no default constructor", info.TypeID)))
			}
			cell := ref.bt.data.load(uint32(destRow))
			defaultInto(info, cell)
		}
		ref.addedTick(destRow, w.tick)
	}
	for _, info := range plan.Removing {
		w.columns[info.Index].dropRow(a.index, row)
	}

	a.tbl.markRemove(row)
	dest.tbl.set(destRow, e)
	dest.tbl.touch(destRow, w.tick)

	w.slots[e.slot].archetype = dest.index
	w.slots[e.slot].row = destRow
	return nil
}

func moveCell(srcCol *column, srcAr ArchetypeIndex, srcRow Row, dstCol *column, dstAr ArchetypeIndex, dstRow Row) {
	if srcCol.info.Size == 0 {
		return
	}
	srcRef := srcCol.blobRef(srcAr)
	dstRef := dstCol.blobRef(dstAr)
	src := srcRef.bt.data.get(uint32(srcRow))
	dst := dstRef.bt.data.load(uint32(dstRow))
	copy(dst, src)
}

func defaultInto(info ComponentInfo, cell []byte) {
	info.Default(unsafe.Pointer(&cell[0]))
}
