package archtype

// Config holds process-wide tunables that have no sane single default,
// mirroring the teacher's config.go pattern of a zero-value-friendly
// struct with setter methods.
var Config config = config{
	defaultRootCapacity: 64,
	maxTailBuckets:      defaultMaxTailBuckets,
}

type config struct {
	defaultRootCapacity uintptr
	maxTailBuckets      int
	archetypeEvents     ArchetypeEvents
}

// ArchetypeEvents holds optional callbacks fired as archetypes are created
// and marked ready, mirroring the teacher's Config.SetTableEvents (the
// teacher hands these to its external table package; here they're consulted
// directly by World.ArchetypeFor).
type ArchetypeEvents struct {
	// Created fires once a new archetype is registered, before any
	// ArchetypeInitListener runs.
	Created func(a *Archetype)
	// Ready fires once every listener-needing query has registered its
	// slots on the archetype (Archetype.Ready becomes true).
	Ready func(a *Archetype)
}

// SetDefaultRootCapacity sets the root blob capacity (spec.md §4.1's `C0`)
// newly-created columns use before any tail bucket is needed.
func (c *config) SetDefaultRootCapacity(n uintptr) {
	c.defaultRootCapacity = n
}

// SetMaxTailBuckets sets the maximum number of tail buckets (spec.md
// §4.1's `B`) a blob may grow before a further load panics.
func (c *config) SetMaxTailBuckets(n int) {
	c.maxTailBuckets = n
}

// SetArchetypeEvents configures the archetype creation/ready callbacks.
func (c *config) SetArchetypeEvents(e ArchetypeEvents) {
	c.archetypeEvents = e
}
