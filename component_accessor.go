package archtype

// GetFromIter retrieves this component's value at the Iter's current
// position — the hot-path call a system's row-processing loop makes,
// mirroring the teacher's AccessibleComponent.GetFromCursor for its
// Cursor-based iteration. Panics with MissingReadAccessError if it's query
// never declared Read or Write on this component (spec.md §7).
func (c AccessibleComponent[T]) GetFromIter(it *Iter) *T {
	if !it.qs.canRead(c.info.Index) {
		panic(MissingReadAccessError{Component: c.info.TypeID.String()})
	}
	return c.GetAt(it.Archetype(), it.Row())
}

// SetFromIter writes this component's value at the Iter's current
// position, recording a changed-tick. Panics with MissingWriteAccessError
// if it's query never declared Write on this component (spec.md §7).
func (c AccessibleComponent[T]) SetFromIter(it *Iter, val T) {
	if !it.qs.canWrite(c.info.Index) {
		panic(MissingWriteAccessError{Component: c.info.TypeID.String()})
	}
	c.SetAt(it.Archetype(), it.Row(), val)
}

// CheckIter reports whether the Iter's current archetype carries this
// component — useful for fetch tuples that declare the component optional.
func (c AccessibleComponent[T]) CheckIter(it *Iter) bool {
	return c.Check(it.Archetype())
}
