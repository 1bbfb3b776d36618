package chainmap

import (
	"testing"
)

func TestMap_All(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1, NoOverwrite)
	m.Set("b", 2, NoOverwrite)
	m.Set("c", 3, NoOverwrite)

	seen := make(map[string]int)
	for k, v := range m.All() {
		if _, dup := seen[k]; dup {
			t.Fatalf("key %q visited twice", k)
		}
		seen[k] = v
	}
	if len(seen) != 3 || seen["a"] != 1 || seen["b"] != 2 || seen["c"] != 3 {
		t.Fatalf("visited %v, want each entry exactly once", seen)
	}
}

func TestMap_AllEarlyBreak(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i, NoOverwrite)
	}

	visited := 0
	for range m.All() {
		visited++
		if visited == 10 {
			break
		}
	}
	if visited != 10 {
		t.Fatalf("visited %d entries after break, want 10", visited)
	}
}

func TestMap_KeysValues(t *testing.T) {
	m := NewMap[int, string]()
	want := map[int]string{1: "one", 2: "two", 3: "three"}
	for k, v := range want {
		m.Set(k, v, NoOverwrite)
	}

	keys := make(map[int]bool)
	for k := range m.Keys() {
		keys[k] = true
	}
	if len(keys) != len(want) {
		t.Fatalf("Keys() visited %d keys, want %d", len(keys), len(want))
	}
	for k := range want {
		if !keys[k] {
			t.Fatalf("Keys() missed %d", k)
		}
	}

	values := make(map[string]bool)
	for v := range m.Values() {
		values[v] = true
	}
	for _, v := range want {
		if !values[v] {
			t.Fatalf("Values() missed %q", v)
		}
	}
}

func TestMap_Nodes(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1, NoOverwrite)
	m.Set("b", 2, NoOverwrite)

	// Nodes exposes borrowed value pointers for in-place updates.
	for n := range m.Nodes() {
		*n.ValuePointer() += 10
	}
	if v, _ := m.Lookup("a"); v != 11 {
		t.Fatalf("Lookup(a) = %d after Nodes update, want 11", v)
	}
	if v, _ := m.Lookup("b"); v != 12 {
		t.Fatalf("Lookup(b) = %d after Nodes update, want 12", v)
	}

	for n := range m.Nodes() {
		if n.Key() == "" {
			t.Fatal("Nodes yielded a node with an empty key")
		}
		if n.Value() != *n.ValuePointer() {
			t.Fatal("Value and ValuePointer disagree")
		}
	}
}

func TestMap_IterateEmpty(t *testing.T) {
	m := NewMap[int, int]()
	for range m.All() {
		t.Fatal("empty map yielded an entry")
	}

	var zero Map[int, int]
	for range zero.All() {
		t.Fatal("zero-value map yielded an entry")
	}
	for range zero.Keys() {
		t.Fatal("zero-value map yielded a key")
	}
}

// TestMap_SingleBucketOrder pins the one ordering property the iterator
// does guarantee: within a bucket the chain is walked newest first, since
// inserts link at the head.
func TestMap_SingleBucketOrder(t *testing.T) {
	m := NewMap[int, int](WithKeyHasher(func(int, uintptr) uintptr { return 0 }))
	for i := 0; i < 10; i++ {
		m.Set(i, i, NoOverwrite)
	}

	var got []int
	for k := range m.Keys() {
		got = append(got, k)
	}
	if len(got) != 10 {
		t.Fatalf("visited %d keys, want 10", len(got))
	}
	for i, k := range got {
		if want := 9 - i; k != want {
			t.Fatalf("position %d holds key %d, want %d (newest first)", i, k, want)
		}
	}
}

func TestMap_IterateAfterGrowth(t *testing.T) {
	m := NewMap[int, int]()
	const n = 5000
	for i := 0; i < n; i++ {
		m.Set(i, -i, NoOverwrite)
	}

	visited := 0
	for k, v := range m.All() {
		if v != -k {
			t.Fatalf("entry %d carries value %d, want %d", k, v, -k)
		}
		visited++
	}
	if visited != n {
		t.Fatalf("visited %d entries, want %d", visited, n)
	}
}
