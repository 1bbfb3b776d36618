//go:build chainmap_cachelinesize_128

package opt

// CacheLineSize_ is used when sizing allocation slabs to whole cache lines.
const CacheLineSize_ = 128
