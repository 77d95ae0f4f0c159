package hashmap

import (
	"unsafe"

	"go.uber.org/zap"
)

// ============================================================================
// Configuration
// ============================================================================

// Config defines configurable options for Table initialization.
type Config struct {
	// keyHash specifies a custom hash function for keys.
	// If nil, the built-in hash function will be used.
	keyHash HashFunc

	// capacity is the initial number of buckets. Values below the floor of
	// 4 are raised to 4. Clear resets the table to this capacity.
	capacity int

	// maxCapacity caps the number of buckets growth may reach. Growing past
	// it fails with ErrCapacityExceeded. Zero means no practical limit.
	maxCapacity int

	// rehashRatio is the load ratio (size/capacity) above which the table
	// doubles. Zero, negative, NaN and infinite values select 0.75.
	rehashRatio float64

	// logger receives growth events. Nil selects zap.NewNop().
	logger *zap.Logger
}

// WithCapacity sets the initial number of buckets. Values below 4 are
// clamped to 4 rather than rejected.
func WithCapacity(cap int) func(*Config) {
	return func(c *Config) {
		c.capacity = cap
	}
}

// WithMaxCapacity limits how many buckets the table may grow to. An
// insertion that needs more fails with ErrCapacityExceeded and leaves the
// table unchanged. Values at or below zero are ignored.
func WithMaxCapacity(cap int) func(*Config) {
	return func(c *Config) {
		if cap > 0 {
			c.maxCapacity = cap
		}
	}
}

// WithRehashRatio sets the load ratio that triggers growth.
//
// Usage:
//
//	// grow only once chains average two entries
//	m := New[string, int](WithRehashRatio(2))
func WithRehashRatio(ratio float64) func(*Config) {
	return func(c *Config) {
		c.rehashRatio = ratio
	}
}

// WithLogger sets the logger growth events are reported to.
func WithLogger(logger *zap.Logger) func(*Config) {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithKeyHasher sets a custom key hashing function for the table.
// The bucket index is hash(key) mod capacity, so the function must be
// deterministic for a key; the seed is constant for the life of a table
// and may be ignored.
//
// Usage:
//
//	// case-insensitive keys
//	m := New[string, int](WithKeyHasher(func(k string, seed uintptr) uintptr {
//		return uintptr(xxhash.Sum64String(strings.ToLower(k))) ^ seed
//	}))
//
// Note that equality is still Go's ==, so keys that hash equal but
// compare unequal are simply stored in the same chain.
func WithKeyHasher[K comparable](
	keyHash func(key K, seed uintptr) uintptr,
) func(*Config) {
	return func(c *Config) {
		if keyHash != nil {
			c.keyHash = func(pointer unsafe.Pointer, u uintptr) uintptr {
				return keyHash(*(*K)(pointer), u)
			}
		}
	}
}

// WithKeyHasherUnsafe sets a low-level unsafe key hashing function that
// operates directly on a pointer to the key.
//
// Notes:
//   - You must correctly cast unsafe.Pointer to the actual key type
//   - Incorrect pointer operations will cause crashes or memory corruption
func WithKeyHasherUnsafe(hs HashFunc) func(*Config) {
	return func(c *Config) {
		c.keyHash = hs
	}
}

// WithBuiltInHasher selects hash/maphash for the key type, bypassing the
// integer and string fast paths.
//
// Usage:
//
//	m := New[string, int](WithBuiltInHasher[string]())
func WithBuiltInHasher[K comparable]() func(*Config) {
	return func(c *Config) {
		c.keyHash = GetBuiltInHasher[K]()
	}
}

// GetBuiltInHasher returns a hash/maphash based hash function for the
// specified type. Each call uses a fresh random seed.
func GetBuiltInHasher[K comparable]() HashFunc {
	return builtInHasher[K]()
}

// IHashFunc defines a custom hash function interface for key types.
// Key types implementing this interface (on the pointer receiver) are
// detected automatically during initialization; an explicit WithKeyHasher
// takes precedence.
//
// Usage:
//
//	type UserID struct {
//		ID     int64
//		Tenant string
//	}
//
//	func (u *UserID) HashFunc(seed uintptr) uintptr {
//		return uintptr(u.ID) ^ seed
//	}
type IHashFunc interface {
	HashFunc(seed uintptr) uintptr
}

func parseKeyInterface[K comparable]() (keyHash HashFunc) {
	var k *K
	if _, ok := any(k).(IHashFunc); ok {
		keyHash = func(ptr unsafe.Pointer, seed uintptr) uintptr {
			return any((*K)(ptr)).(IHashFunc).HashFunc(seed)
		}
	}
	return
}
