package chainmap

import (
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/llxisdsh/chainmap/internal/opt"
)

// Map implements a mapping from a Key type to a Value type via a chained
// hash table whose memory comes from a pluggable Allocator.
//
// Core properties:
//   - Collisions are chained; nodes are allocated individually and
//     re-linked, never re-allocated, when the table grows.
//   - The bucket-array length is always a prime from primeTable, and hash
//     codes are reduced modulo that prime with a divide-free reciprocal
//     multiply.
//   - Zero-value ready: var m Map[string, int] is usable directly and
//     allocates nothing until the first insert.
//   - Pointers returned by LookupPointer/LookupPointerOrAdd/Emplace are
//     borrowed; they survive growth (nodes are re-chained in place) but
//     not removal of their key or RemoveAll.
//
// Map is deliberately single-threaded. Concurrent mutation, or mutation
// concurrent with an in-progress iteration, is undefined behavior and must
// be prevented by the caller.
//
// Notes:
//   - Map must not be copied after first use.
type Map[K comparable, V any] struct {
	_        noCopy
	alloc    Allocator[K, V]
	table    []*Node[K, V]
	size     primeInfo
	count    int
	maxCount int
	keyHash  HashFunc  // WithKeyHasher
	keyEqual EqualFunc // WithKeyEqual
	behavior Behavior  // WithBehavior
	seed     uintptr
}

// SetKind states whether Set may replace the value of a key that is
// already present.
type SetKind uint8

const (
	// NoOverwrite means the caller asserts the key is absent; hitting an
	// existing key is a contract violation (debug assertion).
	NoOverwrite SetKind = iota
	// Overwrite allows replacing the existing value.
	Overwrite
)

// NewMap creates a new Map backed by the Go heap.
//
// Parameters:
//   - options: configuration options (WithCapacity, WithBehavior,
//     WithKeyHasher, ...)
func NewMap[K comparable, V any](
	options ...func(*MapConfig),
) *Map[K, V] {
	return NewMapIn[K, V](HeapAllocator[K, V]{}, options...)
}

// NewMapIn creates a new Map whose nodes and bucket arrays are obtained
// from alloc. The allocator is borrowed, not owned: it must outlive the
// map, and tearing the map down (RemoveAll) returns every node and the
// bucket array to it.
func NewMapIn[K comparable, V any](
	alloc Allocator[K, V],
	options ...func(*MapConfig),
) *Map[K, V] {
	m := &Map[K, V]{alloc: alloc}

	var cfg MapConfig
	for _, o := range options {
		o(noEscape(&cfg))
	}
	m.init(noEscape(&cfg))
	return m
}

// init applies a parsed configuration. Ratio validation happens here,
// once, so every later growth step can trust the Behavior numbers.
func (m *Map[K, V]) init(cfg *MapConfig) {
	// parse interface implementations on K
	if cfg.keyHash == nil {
		ih, ie := parseKeyInterface[K]()
		cfg.keyHash = ih
		if cfg.keyEqual == nil {
			cfg.keyEqual = ie
		}
	}

	m.keyHash, m.keyEqual = defaultHasher[K]()
	if cfg.keyHash != nil {
		m.keyHash = cfg.keyHash
	}
	if cfg.keyEqual != nil {
		m.keyEqual = cfg.keyEqual
	}

	m.behavior = cfg.behavior
	m.behavior.validate()

	if m.alloc == nil {
		m.alloc = HeapAllocator[K, V]{}
	}
	m.seed = uintptr(rand.Uint64())

	if cfg.capacity > 0 {
		b := &m.behavior
		// table size that holds cfg.capacity entries at the density bound
		size := (uint64(cfg.capacity)*uint64(b.DensityDen) +
			uint64(b.DensityNum) - 1) / uint64(b.DensityNum)
		if size > math.MaxUint32 {
			b.overflow()
		}
		m.Reallocate(int(size))
	}
}

// lazyInit makes the zero value usable: the first operation that needs the
// policy collaborators installs the defaults.
func (m *Map[K, V]) lazyInit() {
	if m.keyHash == nil {
		var cfg MapConfig
		m.init(noEscape(&cfg))
	}
}

// indexForKey reduces the key's 32-bit hash code modulo the current prime.
//
// The table must be allocated (size.prime != 0).
func (m *Map[K, V]) indexForKey(k *K) uint32 {
	h := fold32(m.keyHash(noescape(unsafe.Pointer(k)), m.seed))
	return m.size.remainder(h)
}

// findNode returns the node holding k, or nil. Never mutates.
func (m *Map[K, V]) findNode(k *K) *Node[K, V] {
	if m.size.prime == 0 {
		return nil
	}
	idx := m.indexForKey(k)
	for n := m.table[idx]; n != nil; n = n.next {
		if m.keyEqual(noescape(unsafe.Pointer(k)), unsafe.Pointer(&n.key)) {
			return n
		}
	}
	return nil
}

// Lookup returns the value associated with k, if any.
//
// Return Value:
//   - the stored value and true if the key exists, the zero value and
//     false otherwise.
func (m *Map[K, V]) Lookup(k K) (V, bool) {
	if m.keyHash == nil {
		// zero-value map that was never written to
		var zero V
		return zero, false
	}
	if n := m.findNode(&k); n != nil {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Contains reports whether k is present, without copying the value.
func (m *Map[K, V]) Contains(k K) bool {
	return m.keyHash != nil && m.findNode(&k) != nil
}

// LookupPointer returns a borrowed pointer to the value stored for k, or
// nil if the key is not present. It allows updating the value in place
// without going through Set.
func (m *Map[K, V]) LookupPointer(k K) *V {
	if m.keyHash == nil {
		return nil
	}
	if n := m.findNode(&k); n != nil {
		return &n.val
	}
	return nil
}

// LookupPointerOrAdd returns a borrowed pointer to the value stored for k.
// If the key is absent it is inserted with defaultValue first; if present,
// the existing value is returned untouched and defaultValue is discarded.
func (m *Map[K, V]) LookupPointerOrAdd(k K, defaultValue V) *V {
	return m.Emplace(k, func() V { return defaultValue })
}

// Emplace returns a borrowed pointer to the value stored for k,
// constructing the value with construct only when the key is absent. An
// existing value is returned unmodified and construct is not called.
func (m *Map[K, V]) Emplace(k K, construct func() V) *V {
	m.lazyInit()
	m.checkGrowth()

	opt.Assert_(m.size.prime != 0, "table not allocated after growth check")

	idx := m.indexForKey(&k)
	for n := m.table[idx]; n != nil; n = n.next {
		if m.keyEqual(noescape(unsafe.Pointer(&k)), unsafe.Pointer(&n.key)) {
			return &n.val
		}
	}

	n := m.alloc.AllocNode()
	n.next = m.table[idx]
	n.key = k
	n.val = construct()
	m.table[idx] = n
	m.count++
	return &n.val
}

// Set associates v with k.
//
// Parameters:
//   - kind: NoOverwrite if the caller asserts the key is absent,
//     Overwrite if replacing an existing value is allowed.
//
// Return Value:
//   - true if the key existed and its value was overwritten, false if a
//     new entry was inserted.
//
// Notes:
//   - An existing key with NoOverwrite is a programmer error, reported by
//     a debug assertion; release builds overwrite silently, so do not use
//     the assertion for control flow.
func (m *Map[K, V]) Set(k K, v V, kind SetKind) bool {
	m.lazyInit()
	m.checkGrowth()

	opt.Assert_(m.size.prime != 0, "table not allocated after growth check")

	idx := m.indexForKey(&k)
	for n := m.table[idx]; n != nil; n = n.next {
		if m.keyEqual(noescape(unsafe.Pointer(&k)), unsafe.Pointer(&n.key)) {
			opt.Assert_(kind == Overwrite, "Set on an existing key without Overwrite")
			n.val = v
			return true
		}
	}

	n := m.alloc.AllocNode()
	n.next = m.table[idx]
	n.key = k
	n.val = v
	m.table[idx] = n
	m.count++
	return false
}

// At returns the value stored for k, which must exist. A missing key is a
// programmer error reported by a debug assertion; release builds return
// the zero value. Use Lookup when absence is an expected outcome.
func (m *Map[K, V]) At(k K) V {
	p := m.LookupPointer(k)
	opt.Assert_(p != nil, "At on a missing key")
	if p == nil {
		var zero V
		return zero
	}
	return *p
}

// Remove removes k and its associated value, returning whether the key
// existed. Removing an absent key is not an error. Remove never shrinks
// the table.
func (m *Map[K, V]) Remove(k K) bool {
	if m.size.prime == 0 {
		return false
	}
	idx := m.indexForKey(&k)
	pn := &m.table[idx]
	for n := *pn; n != nil; n = *pn {
		if m.keyEqual(noescape(unsafe.Pointer(&k)), unsafe.Pointer(&n.key)) {
			*pn = n.next
			m.count--
			m.alloc.FreeNode(n)
			return true
		}
		pn = &n.next
	}
	return false
}

// RemoveAll removes every entry, returns all nodes and the bucket array to
// the allocator, and resets the map to its empty, unallocated initial
// state. The configured policies (hasher, behavior, allocator) survive, so
// the map can be reused.
func (m *Map[K, V]) RemoveAll() {
	for i := range m.table {
		for n := m.table[i]; n != nil; {
			next := n.next
			m.alloc.FreeNode(n)
			n = next
		}
	}
	if m.table != nil {
		m.alloc.FreeBuckets(m.table)
	}
	m.table = nil
	m.size = primeInfo{}
	m.count = 0
	m.maxCount = 0
}

// Len returns the number of entries currently stored.
func (m *Map[K, V]) Len() int {
	return m.count
}

// Allocator returns the allocator handle this map draws from.
func (m *Map[K, V]) Allocator() Allocator[K, V] {
	m.lazyInit()
	return m.alloc
}

// checkGrowth grows the table when the entry count has reached the
// density threshold. It runs before every insertion path so invariant (c)
// holds: count never exceeds the threshold without a growth step first.
func (m *Map[K, V]) checkGrowth() {
	if m.count == m.maxCount {
		m.grow()
	}
}

// grow computes the next table size from the current population: scale
// the count by the growth ratio, then by the inverse density ratio so the
// new table starts with headroom, clamp to the minimum allocation, and
// treat any wrap as fatal overflow.
func (m *Map[K, V]) grow() {
	b := &m.behavior
	newSize := uint64(m.count) * uint64(b.GrowthNum) / uint64(b.GrowthDen) *
		uint64(b.DensityDen) / uint64(b.DensityNum)

	if newSize < uint64(b.MinAllocation) {
		newSize = uint64(b.MinAllocation)
	}
	if newSize > math.MaxUint32 || newSize < uint64(m.count) {
		b.overflow()
	}

	m.Reallocate(int(newSize))
}

// Reallocate replaces the bucket array with one of at least newTableSize
// slots (rounded up to the next stored prime) and re-chains every existing
// node against the new prime. Node objects are reused as-is; only the
// bucket array is re-allocated. The density threshold is recomputed from
// the new size.
//
// newTableSize must be large enough to hold the current population at the
// configured density.
func (m *Map[K, V]) Reallocate(newTableSize int) {
	m.lazyInit()
	b := &m.behavior

	opt.Assert_(uint64(newTableSize) >=
		uint64(m.count)*uint64(b.DensityDen)/uint64(b.DensityNum),
		"Reallocate size below current population")
	if newTableSize < 0 || uint64(newTableSize) > math.MaxUint32 {
		b.overflow()
	}

	newPrime := nextPrime(uint32(newTableSize), b.overflow)
	newTable := m.alloc.AllocBuckets(int(newPrime.prime))

	// Move all entries over, re-using the node structures.
	for i := range m.table {
		for n := m.table[i]; n != nil; {
			next := n.next
			h := fold32(m.keyHash(unsafe.Pointer(&n.key), m.seed))
			newIdx := newPrime.remainder(h)
			n.next = newTable[newIdx]
			newTable[newIdx] = n
			n = next
		}
	}

	if m.table != nil {
		m.alloc.FreeBuckets(m.table)
	}
	m.table = newTable
	m.size = newPrime
	m.maxCount = int(uint64(newPrime.prime) *
		uint64(b.DensityNum) / uint64(b.DensityDen))
}
