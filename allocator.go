package chainmap

import (
	"unsafe"

	"github.com/llxisdsh/chainmap/internal/opt"
)

// Allocator is the memory source for a Map's chain nodes and bucket
// arrays. The map borrows the allocator: it holds the handle alongside its
// data but never manages the allocator's own lifetime, so the allocator
// must outlive every map using it. Handles are expected to be cheap to
// copy.
//
// Contract:
//   - AllocNode returns a zeroed node; FreeNode receives a node that is no
//     longer reachable from any bucket.
//   - AllocBuckets returns a slice of n nil heads; FreeBuckets receives the
//     exact slice a previous AllocBuckets returned.
//   - The map calls FreeNode for every node and FreeBuckets for every
//     array it obtained, either on Remove/RemoveAll/rehash or at teardown.
type Allocator[K comparable, V any] interface {
	AllocNode() *Node[K, V]
	FreeNode(*Node[K, V])
	AllocBuckets(n int) []*Node[K, V]
	FreeBuckets([]*Node[K, V])
}

// HeapAllocator sources nodes and bucket arrays straight from the Go heap.
// Free operations only clear references so the collector can reclaim the
// pointed-to data; the memory itself is returned to the runtime.
//
// The zero value is ready to use and is the default allocator of a Map.
type HeapAllocator[K comparable, V any] struct{}

func (HeapAllocator[K, V]) AllocNode() *Node[K, V] {
	return new(Node[K, V])
}

func (HeapAllocator[K, V]) FreeNode(n *Node[K, V]) {
	// Drop key/value references for the GC. The node itself is garbage
	// once the map unlinks it.
	*n = Node[K, V]{}
}

func (HeapAllocator[K, V]) AllocBuckets(n int) []*Node[K, V] {
	return make([]*Node[K, V], n)
}

func (HeapAllocator[K, V]) FreeBuckets([]*Node[K, V]) {
}

// SlabAllocator carves nodes out of slabs and recycles freed nodes through
// an intrusive free list, cutting per-node allocations for maps with heavy
// insert/remove churn. Slabs are sized to whole cache lines.
//
// A SlabAllocator is single-threaded, like the maps it serves. Nodes freed
// into it are only ever handed back to maps sharing the same allocator, so
// the usual arena caveat applies: memory is not returned to the runtime
// until Release.
type SlabAllocator[K comparable, V any] struct {
	free  *Node[K, V]
	slabs [][]Node[K, V]

	// allocation counters, exposed through Stats
	allocated int
	recycled  int
}

// NewSlabAllocator creates an empty slab allocator.
func NewSlabAllocator[K comparable, V any]() *SlabAllocator[K, V] {
	return &SlabAllocator[K, V]{}
}

// slabNodes is the number of nodes carved per slab: at least one full
// cache line's worth, and at least 16 so tiny nodes amortize the slab
// header.
func slabNodes[K comparable, V any]() int {
	per := int(opt.CacheLineSize_ / unsafe.Sizeof(Node[K, V]{}))
	return max(16, per*8)
}

func (a *SlabAllocator[K, V]) AllocNode() *Node[K, V] {
	if n := a.free; n != nil {
		a.free = n.next
		n.next = nil
		a.recycled++
		return n
	}
	slab := make([]Node[K, V], slabNodes[K, V]())
	a.slabs = append(a.slabs, slab)
	// first node is handed out, the rest feed the free list
	for i := len(slab) - 1; i >= 1; i-- {
		slab[i].next = a.free
		a.free = &slab[i]
	}
	a.allocated++
	return &slab[0]
}

func (a *SlabAllocator[K, V]) FreeNode(n *Node[K, V]) {
	*n = Node[K, V]{next: a.free}
	a.free = n
}

func (a *SlabAllocator[K, V]) AllocBuckets(n int) []*Node[K, V] {
	// Bucket arrays are replaced wholesale on growth and do not churn the
	// way nodes do, so they come from the heap.
	return make([]*Node[K, V], n)
}

func (a *SlabAllocator[K, V]) FreeBuckets([]*Node[K, V]) {
}

// Release drops every slab and the free list at once. All maps using the
// allocator must already be torn down or abandoned.
func (a *SlabAllocator[K, V]) Release() {
	a.free = nil
	a.slabs = nil
	a.allocated = 0
	a.recycled = 0
}

// SlabAllocatorStats reports allocator activity for diagnostics.
type SlabAllocatorStats struct {
	Slabs       int // slabs currently held
	SlabNodes   int // nodes per slab
	FreeNodes   int // nodes sitting on the free list
	SlabAllocs  int // AllocNode calls served by carving a new slab
	FreeReuses  int // AllocNode calls served from the free list
}

// Stats returns a snapshot of the allocator's internal counters. Intended
// for diagnostics; the shape of this struct may change between releases.
func (a *SlabAllocator[K, V]) Stats() SlabAllocatorStats {
	freeN := 0
	for n := a.free; n != nil; n = n.next {
		freeN++
	}
	return SlabAllocatorStats{
		Slabs:      len(a.slabs),
		SlabNodes:  slabNodes[K, V](),
		FreeNodes:  freeN,
		SlabAllocs: a.allocated,
		FreeReuses: a.recycled,
	}
}
