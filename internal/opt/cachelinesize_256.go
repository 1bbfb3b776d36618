//go:build chainmap_cachelinesize_256

package opt

// CacheLineSize_ is used when sizing allocation slabs to whole cache lines.
const CacheLineSize_ = 256
