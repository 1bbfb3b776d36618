package chainmap

// Node is one stored key/value pair plus the link to the next node in the
// same bucket chain. Nodes are exclusively owned by their Map; the type is
// exported only so that allocators can produce them and so that All can
// expose the stored pair without copying.
//
// WARNING:
//   - A *Node or a pointer into it is a borrowed reference. It stays valid
//     only until the key is removed or the map is torn down; do not retain
//     it across mutations.
type Node[K comparable, V any] struct {
	// next comes first so that the link never pads the entry on common
	// alignments.
	next *Node[K, V]
	key  K
	val  V
}

// Key returns the node's key.
func (n *Node[K, V]) Key() K {
	return n.key
}

// Value returns the node's value.
func (n *Node[K, V]) Value() V {
	return n.val
}

// ValuePointer returns a borrowed pointer to the node's value, allowing
// in-place updates during iteration.
func (n *Node[K, V]) ValuePointer() *V {
	return &n.val
}
