package chainmap

// cursor walks the bucket array: current bucket index plus current node.
// A freshly built cursor sits on the first occupied bucket, or directly in
// the terminal state (node == nil, index == len(table)) for an empty map.
//
// Any mutation of the map (insert, remove, growth) invalidates every live
// cursor; advancing one afterwards is undefined.
type cursor[K comparable, V any] struct {
	table []*Node[K, V]
	index int
	node  *Node[K, V]
}

func newCursor[K comparable, V any](m *Map[K, V]) cursor[K, V] {
	c := cursor[K, V]{table: m.table}
	c.skipEmpty()
	return c
}

// skipEmpty moves index forward to the next occupied bucket and loads its
// head, or leaves the cursor terminal.
func (c *cursor[K, V]) skipEmpty() {
	for c.index < len(c.table) {
		if n := c.table[c.index]; n != nil {
			c.node = n
			return
		}
		c.index++
	}
	c.node = nil
}

// next advances to the next node: first along the current chain, then
// forward through the bucket array.
func (c *cursor[K, V]) next() {
	if c.node == nil {
		return
	}
	if c.node = c.node.next; c.node != nil {
		return
	}
	c.index++
	c.skipEmpty()
}

// All returns a range-func iterator over the map's key/value pairs:
//
//	for k, v := range m.All() {
//		...
//	}
//
// Iteration visits buckets in ascending index order and each chain newest
// insert first; beyond "every entry exactly once" the order is unspecified
// and must not be relied upon. The map must not be mutated while iterating
// (updating values in place through Nodes or LookupPointer is fine).
func (m *Map[K, V]) All() func(yield func(K, V) bool) {
	return m.Range
}

// Range calls yield for every key/value pair until yield returns false.
// Same ordering and mutation rules as All.
func (m *Map[K, V]) Range(yield func(K, V) bool) {
	for c := newCursor(m); c.node != nil; c.next() {
		if !yield(c.node.key, c.node.val) {
			return
		}
	}
}

// Keys returns a range-func iterator over just the keys.
func (m *Map[K, V]) Keys() func(yield func(K) bool) {
	return func(yield func(K) bool) {
		for c := newCursor(m); c.node != nil; c.next() {
			if !yield(c.node.key) {
				return
			}
		}
	}
}

// Values returns a range-func iterator over just the values.
func (m *Map[K, V]) Values() func(yield func(V) bool) {
	return func(yield func(V) bool) {
		for c := newCursor(m); c.node != nil; c.next() {
			if !yield(c.node.val) {
				return
			}
		}
	}
}

// Nodes returns a range-func iterator over the map's nodes, exposing each
// stored pair without copying it. The *Node is borrowed: valid while the
// map is unmutated, and its value may be updated in place through
// ValuePointer.
func (m *Map[K, V]) Nodes() func(yield func(*Node[K, V]) bool) {
	return func(yield func(*Node[K, V]) bool) {
		for c := newCursor(m); c.node != nil; c.next() {
			if !yield(c.node) {
				return
			}
		}
	}
}
