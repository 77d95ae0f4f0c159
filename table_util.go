package hashmap

import (
	"hash/maphash"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// ============================================================================
// Private Constants
// ============================================================================

// Sizing and growth configuration
const (
	// defaultRehashRatio: grow the table when size > capacity*defaultRehashRatio
	defaultRehashRatio = 0.75
	// minCapacity: minimum number of buckets
	minCapacity = 4
	// defaultMaxCapacity: bucket count ceiling unless WithMaxCapacity is given
	defaultMaxCapacity = 1 << (intSize - 2)
	// maxEntries: arena references are 32-bit and 1-based
	maxEntries = 1<<32 - 1
	// shortStringLen: strings up to this length are hashed inline
	shortStringLen = 12
)

const (
	intSize = 32 << (^uint(0) >> 63) // 32 or 64
	maxInt  = 1<<(intSize-1) - 1     // MaxInt32 or MaxInt64 depending on intSize.
)

// ============================================================================
// Utility Functions
// ============================================================================

// calcCapacity clamps a requested bucket count to the supported floor.
//
//go:nosplit
func calcCapacity(capacity int) int {
	return max(capacity, minCapacity)
}

// overLoad reports whether holding size entries in capacity buckets would
// exceed the rehash ratio.
//
//go:nosplit
func overLoad(size, capacity int, ratio float64) bool {
	return float64(size) > float64(capacity)*ratio
}

// makeBuckets allocates an empty bucket array. A runtime allocation failure
// is turned into an error so the caller can keep its current array.
func makeBuckets[K comparable, V any](n int) (b []bucket[K, V], err error) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			b, err = nil, errors.Wrapf(ErrAllocation, "%d buckets: %v", n, re)
		}
	}()
	return make([]bucket[K, V], n), nil
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

// noescape hides a pointer from escape analysis. noescape is
// the identity function, but escape analysis doesn't think the
// output depends on the input.  noescape is inlined and currently
// compiles down to zero instructions.
// USE CAREFULLY!
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	//nolint:all
	//goland:noinspection ALL
	return unsafe.Pointer(x ^ 0)
}

// ============================================================================
// Hash Utilities
// ============================================================================

// HashFunc is the function to hash a key. ptr points at a value of the
// table's key type.
type HashFunc func(ptr unsafe.Pointer, seed uintptr) uintptr

func defaultHasher[K comparable]() HashFunc {
	switch any(*new(K)).(type) {
	case uint, int, uintptr:
		return hashUintptr
	case uint64, int64:
		if intSize == 64 {
			return hashUint64
		}
		return hashUint64On32Bit
	case uint32, int32:
		return hashUint32
	case uint16, int16:
		return hashUint16
	case uint8, int8:
		return hashUint8
	case string:
		return hashString
	}

	// named types over the same kinds share the layout
	kType := reflect.TypeFor[K]()
	if kType == nil {
		return builtInHasher[K]()
	}
	switch kType.Kind() {
	case reflect.Uint, reflect.Int, reflect.Uintptr:
		return hashUintptr
	case reflect.Int64, reflect.Uint64:
		if intSize == 64 {
			return hashUint64
		}
		return hashUint64On32Bit
	case reflect.Int32, reflect.Uint32:
		return hashUint32
	case reflect.Int16, reflect.Uint16:
		return hashUint16
	case reflect.Int8, reflect.Uint8:
		return hashUint8
	case reflect.String:
		return hashString
	default:
		return builtInHasher[K]()
	}
}

//go:nosplit
func hashUintptr(ptr unsafe.Pointer, _ uintptr) uintptr {
	return *(*uintptr)(ptr)
}

//go:nosplit
func hashUint64On32Bit(ptr unsafe.Pointer, _ uintptr) uintptr {
	v := *(*uint64)(ptr)
	return uintptr(v) ^ uintptr(v>>32)
}

//go:nosplit
func hashUint64(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint64)(ptr))
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

func hashString(ptr unsafe.Pointer, seed uintptr) uintptr {
	s := *(*string)(ptr)
	if len(s) <= shortStringLen {
		for i := 0; i < len(s); i++ {
			seed = seed*31 + uintptr(s[i])
		}
		return seed
	}
	return uintptr(xxhash.Sum64String(s)) ^ seed
}

// builtInHasher hashes any comparable key with hash/maphash, which follows
// the same equality rules as Go's built-in map (e.g. +0 == -0, NaN != NaN).
func builtInHasher[K comparable]() HashFunc {
	mseed := maphash.MakeSeed()
	return func(ptr unsafe.Pointer, seed uintptr) uintptr {
		return uintptr(maphash.Comparable(mseed, *(*K)(ptr))) ^ seed
	}
}
