package chainmap

import (
	"errors"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/llxisdsh/chainmap/internal/opt"
)

// ErrOverflow is the panic value of the default overflow hook: a growth
// computation wrapped, or no stored prime is large enough for the
// requested bucket-array size. It is deliberately not a recoverable error
// return; treat it like running out of memory.
var ErrOverflow = errors.New("chainmap: table size overflow")

// ============================================================================
// Hash Utilities
// ============================================================================

type (
	// HashFunc is the function to hash a key through its address.
	HashFunc func(ptr unsafe.Pointer, seed uintptr) uintptr
	// EqualFunc is the function to compare two keys through their
	// addresses.
	EqualFunc func(ptr unsafe.Pointer, other unsafe.Pointer) bool
)

// fold32 reduces a full-width hash to the 32-bit code consumed by the
// prime reduction, mixing the high half in so it still contributes.
//
//go:nosplit
func fold32(h uintptr) uint32 {
	v := uint64(h)
	return uint32(v ^ v>>32)
}

// defaultHasher picks the hash and equality strategy for K when none was
// configured: width-matched loads for integer kinds, xxhash for strings,
// and the built-in map hasher for everything else. Equality defaults to ==.
func defaultHasher[K comparable]() (keyHash HashFunc, keyEqual EqualFunc) {
	keyEqual = func(a, b unsafe.Pointer) bool {
		return *(*K)(a) == *(*K)(b)
	}

	switch any(*new(K)).(type) {
	case uint, int, uintptr:
		return hashUintptr, keyEqual
	case uint64, int64:
		return hashUint64, keyEqual
	case uint32, int32:
		return hashUint32, keyEqual
	case uint16, int16:
		return hashUint16, keyEqual
	case uint8, int8:
		return hashUint8, keyEqual
	case string:
		return hashString, keyEqual
	default:
		// named integer and string types land here
		switch reflect.TypeFor[K]().Kind() {
		case reflect.Uint, reflect.Int, reflect.Uintptr:
			return hashUintptr, keyEqual
		case reflect.Int64, reflect.Uint64:
			return hashUint64, keyEqual
		case reflect.Int32, reflect.Uint32:
			return hashUint32, keyEqual
		case reflect.Int16, reflect.Uint16:
			return hashUint16, keyEqual
		case reflect.Int8, reflect.Uint8:
			return hashUint8, keyEqual
		case reflect.String:
			return hashString, keyEqual
		default:
			keyHash, _ = builtInFuncs[K]()
			return keyHash, keyEqual
		}
	}
}

//go:nosplit
func hashUintptr(ptr unsafe.Pointer, _ uintptr) uintptr {
	return *(*uintptr)(ptr)
}

//go:nosplit
func hashUint64(ptr unsafe.Pointer, _ uintptr) uintptr {
	v := *(*uint64)(ptr)
	return uintptr(v) ^ uintptr(v>>32)
}

//go:nosplit
func hashUint32(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint32)(ptr))
}

//go:nosplit
func hashUint16(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint16)(ptr))
}

//go:nosplit
func hashUint8(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint8)(ptr))
}

// hashString hashes string keys with xxhash. Unlike the built-in map
// hasher it is stable across processes, which keeps bucket layouts
// reproducible for a fixed seed.
func hashString(ptr unsafe.Pointer, seed uintptr) uintptr {
	return uintptr(xxhash.Sum64String(*(*string)(ptr))) ^ seed
}

// HashWord hashes a fixed-width value through its address by loading its
// byte representation, the way the default strategy treats primitive keys.
// It is a building block for custom hashers over types that are 1, 2, 4 or
// 8 bytes wide; any other width is a contract violation (debug assertion)
// and hashes as zero.
func HashWord(ptr unsafe.Pointer, size uintptr, seed uintptr) uintptr {
	switch size {
	case 8:
		return hashUint64(ptr, seed)
	case 4:
		return hashUint32(ptr, seed)
	case 2:
		return hashUint16(ptr, seed)
	case 1:
		return hashUint8(ptr, seed)
	default:
		opt.Assert_(false, "unsupported key width")
		return 0
	}
}

// builtInFuncs gets Go's built-in hash and equality functions for the
// specified key type using the runtime's type representation.
//
// Notes:
//   - This relies on Go's internal type layout and should be re-verified
//     on each Go version upgrade.
func builtInFuncs[K comparable]() (keyHash HashFunc, keyEqual EqualFunc) {
	var m map[K]struct{}
	mapType := iTypeOf(m).MapType()
	return mapType.Hasher, mapType.Key.Equal
}

type (
	iTFlag   uint8
	iKind    uint8
	iNameOff int32
)

// iTypeOff is the offset to a type from moduledata.types. See
// resolveTypeOff in runtime.
type iTypeOff int32

type iType struct {
	Size_       uintptr
	PtrBytes    uintptr // number of (prefix) bytes in the type that can contain pointers
	Hash        uint32  // hash of type; avoids computation in hash tables
	TFlag       iTFlag  // extra type information flags
	Align_      uint8   // alignment of variable with this type
	FieldAlign_ uint8   // alignment of struct field with this type
	Kind_       iKind   // enumeration for C
	// function for comparing objects of this type
	// (ptr to object A, ptr to object B) -> ==?
	Equal func(unsafe.Pointer, unsafe.Pointer) bool
	// GCData stores the GC type data for the garbage collector.
	GCData    *byte
	Str       iNameOff // string form
	PtrToThis iTypeOff // type for pointer to this type, may be zero
}

func (t *iType) MapType() *iMapType {
	return (*iMapType)(unsafe.Pointer(t))
}

type iMapType struct {
	iType
	Key   *iType
	Elem  *iType
	Group *iType // internal type representing a slot group
	// function for hashing keys (ptr to key, seed) -> hash
	Hasher func(unsafe.Pointer, uintptr) uintptr
}

func iTypeOf(a any) *iType {
	eface := *(*iEmptyInterface)(unsafe.Pointer(&a))
	// Types are either static (for compiler-created types) or
	// heap-allocated but always reachable (for reflection-created types),
	// so there is no need to let the value escape.
	return (*iType)(noescape(unsafe.Pointer(eface.Type)))
}

type iEmptyInterface struct {
	Type *iType
	Data unsafe.Pointer
}

// ============================================================================
// Misc Utilities
// ============================================================================

// noescape hides a pointer from escape analysis. noescape is
// the identity function, but escape analysis doesn't think the
// output depends on the input. noescape is inlined and currently
// compiles down to zero instructions.
// USE CAREFULLY!
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	//nolint:all
	return unsafe.Pointer(x ^ 0)
}

//go:nosplit
//go:nocheckptr
func noEscape[T any](p *T) *T {
	return (*T)(noescape(unsafe.Pointer(p)))
}

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
