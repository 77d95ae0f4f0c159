//go:build hashmap_disable_padding

package opt

import "sync"

// RWMutex_ is a plain sync.RWMutex when padding is disabled.
type RWMutex_ struct {
	sync.RWMutex
}
