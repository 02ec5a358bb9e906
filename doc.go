/*
Package archtype is an archetype-based storage and query core for an
Entity-Component-System runtime.

Entities with the same component set live packed together in one Table,
one Column per component, so a query over many entities walks dense
memory instead of chasing pointers. Components are added to and removed
from the world by moving an entity's row to the archetype matching its
new component set (see Alter), never by mutating storage in place.

Core Concepts:

  - Entity: a (generation, slot) handle; stale handles are detected
    cheaply by comparing generations against the World's slot table.
  - Component: a Go type registered once per World via FactoryNewComponent,
    yielding an AccessibleComponent[T] for typed row access.
  - Archetype: an immutable identity — a sorted component set plus the
    Table holding every entity with exactly that set.
  - World: the registry of components, archetypes, and entities, and the
    event bus that notifies queries synchronously when a new archetype
    is created.
  - QueryState / Iter: a cached set of matched archetypes plus the
    iteration strategy (scan-all, single change log, or multi change
    log with dedup) picked from the query's declared filters.

Basic Usage:

	w := archtype.Factory.NewWorld()

	position := archtype.FactoryNewComponent[Position](w)
	velocity := archtype.FactoryNewComponent[Velocity](w)

	w.Spawn([]archtype.ComponentInfo{position.Info(), velocity.Info()})

	// Normal-mode iteration excludes rows written this same tick, so a
	// freshly spawned entity needs one Advance before a plain query sees it.
	w.Advance()

	qs := archtype.Factory.NewQueryState(w,
		archtype.Write(position.Info()),
		archtype.Read(velocity.Info()),
	)

	it := qs.Iter()
	for it.Next() {
		pos := position.GetFromIter(it)
		vel := velocity.GetFromIter(it)
		pos.X += vel.X
		pos.Y += vel.Y
	}
	w.Settle()

A caller holding live Iters should bracket the pass with
World.AddLock/RemoveLock and request structural mutations mid-pass through
World.EnqueueSpawn/EnqueueDestroy/EnqueueAlter, which queue while the world
is locked instead of invalidating rows out from under the iterator; see the
operation queue in operation_queue.go. Spawn, Destroy and Alter themselves
do not check the lock.
*/
package archtype
