//go:build !chainmap_cachelinesize_32 && !chainmap_cachelinesize_64 && !chainmap_cachelinesize_128 && !chainmap_cachelinesize_256

package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is used when sizing allocation slabs to whole cache lines.
// It's automatically calculated using the `golang.org/x/sys` package.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})
