//go:build !hashmap_disable_padding

package opt

import (
	"sync"
	"unsafe"
)

// RWMutex_ is a sync.RWMutex padded out to a whole cache line, so that
// readers spinning on the lock word do not invalidate the line holding the
// table header it guards.
// Disable with: go build -tags=hashmap_disable_padding
type RWMutex_ struct {
	sync.RWMutex
	_ [(CacheLineSize_ - unsafe.Sizeof(sync.RWMutex{})%CacheLineSize_) % CacheLineSize_]byte
}
