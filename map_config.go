package chainmap

import (
	"unsafe"
)

// ============================================================================
// Configuration
// ============================================================================

// MapConfig defines configurable options for Map initialization.
// It collects the policy collaborators a map consumes: the hashing and
// equality strategy for keys, the numeric tuning behavior, and an optional
// initial capacity.
type MapConfig struct {
	// keyHash specifies a custom hash function for keys.
	// If nil, the built-in hash function will be used.
	keyHash HashFunc

	// keyEqual specifies a custom equality function for keys.
	// If nil, the built-in == comparison will be used.
	// Equal keys must always produce equal hash codes.
	keyEqual EqualFunc

	// behavior holds the numeric tuning policy. Zero fields fall back to
	// DefaultBehavior.
	behavior Behavior

	// capacity pre-sizes the bucket array, exactly as an explicit
	// Reallocate before first use. If zero or negative, the map starts
	// with no allocation at all.
	capacity int
}

// Behavior is the numeric tuning policy of a Map: how aggressively the
// bucket array grows, how densely it may fill before growth triggers, the
// smallest allocation, and what happens when a size computation can no
// longer be satisfied.
//
// The ratios are validated once, when the map is initialized: the growth
// ratio must exceed 1 (GrowthNum > GrowthDen) and the density ratio must
// be below 1 (DensityNum < DensityDen). Invalid ratios are a programmer
// error and panic immediately.
type Behavior struct {
	// Growth ratio applied to the entry count when computing a new
	// bucket-array size.
	GrowthNum uint32
	GrowthDen uint32

	// Density ratio: maximum entries per bucket-array slot before growth
	// triggers. Its inverse restores headroom after growth.
	DensityNum uint32
	DensityDen uint32

	// MinAllocation is the smallest requested bucket-array size (the size
	// used on first growth). Prefer WithCapacity over raising this.
	MinAllocation uint32

	// OnOverflow is invoked when a growth computation wraps or no stored
	// prime is large enough. It must not return control: abort,
	// out-of-memory style. If nil, the map panics with ErrOverflow.
	OnOverflow func()
}

// DefaultBehavior is the tuning used when no Behavior is supplied:
// grow by 3/2, keep at most 3 entries per 4 buckets, allocate at least 7
// buckets, panic on overflow.
func DefaultBehavior() Behavior {
	return Behavior{
		GrowthNum:     3,
		GrowthDen:     2,
		DensityNum:    3,
		DensityDen:    4,
		MinAllocation: 7,
	}
}

func (b *Behavior) validate() {
	if b.GrowthNum == 0 && b.GrowthDen == 0 {
		b.GrowthNum, b.GrowthDen = 3, 2
	}
	if b.DensityNum == 0 && b.DensityDen == 0 {
		b.DensityNum, b.DensityDen = 3, 4
	}
	if b.MinAllocation == 0 {
		b.MinAllocation = 7
	}
	if b.GrowthNum <= b.GrowthDen {
		panic("chainmap: growth ratio must exceed 1")
	}
	if b.DensityNum >= b.DensityDen {
		panic("chainmap: density ratio must be below 1")
	}
}

func (b *Behavior) overflow() {
	if b.OnOverflow != nil {
		b.OnOverflow()
		panic("chainmap: overflow hook returned")
	}
	panic(ErrOverflow)
}

// WithBehavior configures the numeric tuning policy of a new Map.
// Zero ratio or MinAllocation fields keep their defaults; ratios are
// validated during Map initialization.
func WithBehavior(b Behavior) func(*MapConfig) {
	return func(c *MapConfig) {
		c.behavior = b
	}
}

// WithCapacity pre-sizes a new Map with a bucket array large enough for
// cap entries at the configured density, exactly as if Reallocate had been
// called before first use. If cap is zero or negative, the value is
// ignored and the map starts unallocated.
func WithCapacity(cap int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.capacity = cap
	}
}

// WithKeyHasher sets a custom key hashing function for the map.
// Hash codes are folded to 32 bits before bucket reduction, so only the
// low 32 bits of well-mixed output matter.
//
// Parameters:
//   - keyHash: hash function taking a key and the map's seed. Pass nil to
//     keep the default built-in hasher.
//
// The contract is the usual one: keys that compare equal must produce
// equal hash codes, and the function must be pure and deterministic for
// the lifetime of the map.
//
// Usage:
//
//	m := NewMap[string, int](WithKeyHasher(func(k string, seed uintptr) uintptr {
//		return uintptr(len(k)) // example only
//	}))
func WithKeyHasher[K comparable](
	keyHash func(key K, seed uintptr) uintptr,
) func(*MapConfig) {
	return func(c *MapConfig) {
		if keyHash != nil {
			c.keyHash = func(ptr unsafe.Pointer, seed uintptr) uintptr {
				return keyHash(*(*K)(ptr), seed)
			}
		}
	}
}

// WithKeyHasherUnsafe sets a low-level key hashing function operating
// directly on the key's memory. Use when the typed wrapper of
// WithKeyHasher shows up in profiles.
//
// Notes:
//   - The pointer must be cast to the actual key type.
//   - Incorrect pointer operations will corrupt memory.
func WithKeyHasherUnsafe(hs HashFunc) func(*MapConfig) {
	return func(c *MapConfig) {
		c.keyHash = hs
	}
}

// WithKeyEqual sets a custom key equality function, overriding the
// built-in == comparison. Equal keys must produce equal hash codes under
// the configured hasher.
//
// Usage:
//
//	m := NewMap[string, int](
//		WithKeyHasher(foldCaseHash),
//		WithKeyEqual(strings.EqualFold),
//	)
func WithKeyEqual[K comparable](
	keyEqual func(a, b K) bool,
) func(*MapConfig) {
	return func(c *MapConfig) {
		if keyEqual != nil {
			c.keyEqual = func(a, b unsafe.Pointer) bool {
				return keyEqual(*(*K)(a), *(*K)(b))
			}
		}
	}
}

// WithKeyEqualUnsafe sets a low-level key equality function operating on
// raw key pointers.
func WithKeyEqualUnsafe(eq EqualFunc) func(*MapConfig) {
	return func(c *MapConfig) {
		c.keyEqual = eq
	}
}

// GetBuiltInHasher returns Go's built-in hash function for T, in the
// erased HashFunc form. Useful as a building block when composing custom
// hashers.
func GetBuiltInHasher[T comparable]() HashFunc {
	keyHash, _ := builtInFuncs[T]()
	return keyHash
}

// IHashFunc defines a custom hash function interface for key types.
// Key types implementing this interface provide their own hash
// computation, as an alternative to WithKeyHasher.
//
// It is detected during Map initialization and takes precedence over the
// default built-in hasher, but is overridden by an explicit WithKeyHasher.
//
// Usage:
//
//	type UserID struct {
//		ID     int64
//		Tenant string
//	}
//
//	func (u *UserID) HashFunc(seed uintptr) uintptr {
//		return uintptr(u.ID) ^ seed
//	}
type IHashFunc interface {
	HashFunc(seed uintptr) uintptr
}

// IKeyEqualFunc defines a custom equality interface for key types,
// detected during Map initialization analogously to IHashFunc. Equal keys
// must produce equal hash codes.
type IKeyEqualFunc[K any] interface {
	KeyEqualFunc(other K) bool
}

func parseKeyInterface[K comparable]() (keyHash HashFunc, keyEqual EqualFunc) {
	var k *K
	if _, ok := any(k).(IHashFunc); ok {
		keyHash = func(ptr unsafe.Pointer, seed uintptr) uintptr {
			return any((*K)(ptr)).(IHashFunc).HashFunc(seed)
		}
	}
	if _, ok := any(k).(IKeyEqualFunc[K]); ok {
		keyEqual = func(ptr unsafe.Pointer, other unsafe.Pointer) bool {
			return any((*K)(ptr)).(IKeyEqualFunc[K]).KeyEqualFunc(*(*K)(other))
		}
	}
	return
}
