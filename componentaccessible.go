package archtype

// AccessibleComponent is an ergonomic typed handle for one registered
// component type: it carries the component's ComponentInfo plus the World
// it was registered against, so callers can fetch/write a typed value for
// an entity or an iterator row without repeating the type witness at every
// call site. Adapted from the teacher's AccessibleComponent[T], which
// pairs a Component with a table.Accessor[T] the same way.
type AccessibleComponent[T any] struct {
	info ComponentInfo
	w    *World
}

// Info returns the underlying ComponentInfo.
func (c AccessibleComponent[T]) Info() ComponentInfo { return c.info }

// GetFromEntity retrieves a component value for the specified entity.
// Panics (a caller-contract violation, like Blob.get) if the entity's
// archetype doesn't carry this component — use CheckEntity first if unsure.
func (c AccessibleComponent[T]) GetFromEntity(e Entity) *T {
	a, row, err := c.w.Lookup(e)
	if err != nil {
		panic(err)
	}
	return c.GetAt(a, row)
}

// GetAt returns a pointer to T at a specific (archetype, row) — the shape
// an Iter yields. This is the hot-path call an iteration body uses.
func (c AccessibleComponent[T]) GetAt(a *Archetype, row Row) *T {
	col := c.w.columns[c.info.Index]
	ref := col.blobRef(a.index)
	return get[T](ref, row)
}

// GetFromEntitySafe safely retrieves a component value, checking
// existence first.
func (c AccessibleComponent[T]) GetFromEntitySafe(e Entity) (bool, *T) {
	if !c.CheckEntity(e) {
		return false, nil
	}
	return true, c.GetFromEntity(e)
}

// SetAt writes val at a specific (archetype, row) and records a
// changed-tick at the world's current tick, plus the row-level touch tick
// nextNormal's self-feedback filter consults (spec.md §4.6).
func (c AccessibleComponent[T]) SetAt(a *Archetype, row Row, val T) {
	col := c.w.columns[c.info.Index]
	ref := col.blobRef(a.index)
	*write[T](ref, row) = val
	ref.changedTick(row, c.w.tick)
	a.tbl.touch(row, c.w.tick)
}

// CheckEntity reports whether e's current archetype carries this
// component.
func (c AccessibleComponent[T]) CheckEntity(e Entity) bool {
	a, _, err := c.w.Lookup(e)
	if err != nil {
		return false
	}
	return a.Contains(c.info.Index)
}

// Check reports whether archetype a carries this component.
func (c AccessibleComponent[T]) Check(a *Archetype) bool {
	return a.Contains(c.info.Index)
}

// isArchtypeComponent marks AccessibleComponent as a Component witness.
func (c AccessibleComponent[T]) isArchtypeComponent() {}
