//go:build hashmap_cachelinesize_128

package opt

const CacheLineSize_ = 128
