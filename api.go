package archtype

// Cache is a small keyed registry used for World-level lookup tables that
// need both name-based and dense-index-based access (e.g. a World's
// per-name archetype registry). Adapted from the teacher's generic
// SimpleCache, which plays the same role for the teacher's component and
// archetype registries.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
}

// CacheLocation names a cache slot by both its registration key and its
// resolved dense index, so callers can re-resolve cheaply after the first
// lookup.
type CacheLocation struct {
	Key   string
	Index uint32
}

// SimpleCache is the default Cache implementation: an append-only slice of
// items plus a name -> index map, capped at a fixed capacity decided at
// construction (FactoryNewCache).
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}
