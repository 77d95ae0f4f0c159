package opt

import (
	"sync"
	"testing"
	"unsafe"
)

func TestRWMutexPadding(t *testing.T) {
	var mu RWMutex_
	size := unsafe.Sizeof(mu)
	if size != unsafe.Sizeof(sync.RWMutex{}) && size%CacheLineSize_ != 0 {
		t.Fatalf("RWMutex_ size=%d, cache line=%d", size, CacheLineSize_)
	}
	mu.Lock()
	mu.Unlock()
	mu.RLock()
	mu.RUnlock()
}
