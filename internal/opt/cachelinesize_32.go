//go:build chainmap_cachelinesize_32

package opt

// CacheLineSize_ is used when sizing allocation slabs to whole cache lines.
const CacheLineSize_ = 32
