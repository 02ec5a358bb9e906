package archtype

import (
	"fmt"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// defaultMaxTailBuckets is Config.maxTailBuckets' default (spec.md §4.1's
// `B`). Bucket i holds 2^i * rootCapacity cells, so 24 buckets over a root
// of 64 cells already covers roughly a billion rows — comfortably past any
// realistic single-archetype population.
const defaultMaxTailBuckets = 24

// blob is a typeless growable contiguous byte store for one component
// column in one archetype (spec.md §4.1). It supports `load` (grow-on-
// demand) and `get` (lookup-only) without ever invalidating a pointer
// returned by an earlier call, which is what lets a reader hold a borrow
// across a concurrent writer's growth.
type blob struct {
	cellSize uintptr
	rootCap  uintptr
	root     []byte
	// tail[i] is published with a release store once allocated; readers
	// acquire-load it. A non-nil tail[i] never changes afterward, except
	// across a settle() which requires no concurrent accessors. Sized at
	// construction from Config.maxTailBuckets (SPEC_FULL.md §1 `B`).
	tail []atomic.Pointer[[]byte]
	// bucketCap[i] caches 2^i * rootCap so load() doesn't recompute it.
	bucketCap []uintptr
}

// zeroSizedSentinel backs the one-byte cell load/get return for a blob of a
// zero-sized component (cellSize 0): such a blob has infinite logical
// capacity and no backing allocation (spec.md §4.1).
var zeroSizedSentinel byte

func newBlob(cellSize uintptr, rootCap uintptr) *blob {
	if rootCap == 0 {
		rootCap = 64
	}
	maxBuckets := Config.maxTailBuckets
	if maxBuckets <= 0 {
		maxBuckets = defaultMaxTailBuckets
	}
	b := &blob{
		cellSize:  cellSize,
		rootCap:   rootCap,
		tail:      make([]atomic.Pointer[[]byte], maxBuckets),
		bucketCap: make([]uintptr, maxBuckets),
	}
	cap := rootCap
	for i := 0; i < maxBuckets; i++ {
		b.bucketCap[i] = cap
		cap *= 2
	}
	return b
}

func (b *blob) isZeroSized() bool {
	return b.cellSize == 0
}

// locate resolves a row to (bucket index, offset-in-cells), or (-1, r) for
// the root buffer, per spec.md §4.1's addressing formula.
func (b *blob) locate(row uint32) (bucket int, offset uintptr) {
	r := uintptr(row)
	if r < b.rootCap {
		return -1, r
	}
	rel := r - b.rootCap
	i := 0
	span := b.rootCap
	total := span
	for rel >= total {
		i++
		span *= 2
		total += span
	}
	return i, rel - (total - span)
}

// load returns a pointer to row's cell, growing the store if necessary.
// Safe to call concurrently from different goroutines at different rows.
func (b *blob) load(row uint32) []byte {
	if b.isZeroSized() {
		return []byte{zeroSizedSentinel}
	}
	bucket, offset := b.locate(row)
	if bucket < 0 {
		if uintptr(len(b.root)) < b.rootCap*b.cellSize {
			b.root = make([]byte, b.rootCap*b.cellSize)
		}
		start := offset * b.cellSize
		return b.root[start : start+b.cellSize]
	}
	if bucket >= len(b.tail) {
		panic(bark.AddTrace(fmt.Errorf("archtype: blob exceeded %d tail buckets", len(b.tail))))
	}
	buf := b.tail[bucket].Load()
	if buf == nil {
		capCells := b.bucketCap[bucket]
		newBuf := make([]byte, capCells*b.cellSize)
		if !b.tail[bucket].CompareAndSwap(nil, &newBuf) {
			buf = b.tail[bucket].Load()
		} else {
			buf = &newBuf
		}
	}
	start := offset * b.cellSize
	return (*buf)[start : start+b.cellSize]
}

// get looks up a cell that must already have been `load`-ed; it never
// allocates and panics (as a caller-contract violation) if the bucket
// backing the row was never published.
func (b *blob) get(row uint32) []byte {
	if b.isZeroSized() {
		return []byte{zeroSizedSentinel}
	}
	bucket, offset := b.locate(row)
	if bucket < 0 {
		start := offset * b.cellSize
		return b.root[start : start+b.cellSize]
	}
	buf := b.tail[bucket].Load()
	if buf == nil {
		panic(bark.AddTrace(fmt.Errorf("archtype: blob.get on uninitialized row %d", row)))
	}
	start := offset * b.cellSize
	return (*buf)[start : start+b.cellSize]
}

// settle merges all published tail buckets into a single contiguous root of
// capacity len+additional. Requires no concurrent accessors (epoch
// barrier); the scheduler guarantees this between epochs.
func (b *blob) settle(length, additional int) {
	if b.isZeroSized() {
		return
	}
	needed := uintptr(length + additional)
	if needed <= b.rootCap && b.hasNoTail() {
		return
	}
	newRootCap := needed
	if newRootCap < b.rootCap {
		newRootCap = b.rootCap
	}
	newRoot := make([]byte, newRootCap*b.cellSize)
	for row := 0; row < length; row++ {
		cell := b.get(uint32(row))
		copy(newRoot[uintptr(row)*b.cellSize:], cell)
	}
	b.root = newRoot
	b.rootCap = newRootCap
	cap := newRootCap
	for i := range b.tail {
		b.tail[i].Store(nil)
		b.bucketCap[i] = cap
		cap *= 2
	}
}

func (b *blob) hasNoTail() bool {
	for i := range b.tail {
		if b.tail[i].Load() != nil {
			return false
		}
	}
	return true
}
