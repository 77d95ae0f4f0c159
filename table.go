// Package hashmap provides Table, a generic hash table that resolves
// collisions by separate chaining, doubles its bucket array when the load
// ratio is exceeded, and guards all state with a single reader-writer lock.
package hashmap

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/llxisdsh/hashmap/internal/opt"
)

// Table is a concurrent hash table with separate chaining.
//
// Core properties:
//   - One entry per key; Insert overwrites, Access auto-vivifies
//   - Capacity never drops below 4 and doubles whenever size would exceed
//     capacity*ratio (0.75 by default)
//   - Reads share a sync.RWMutex; every mutation, including the growth it
//     triggers, holds it exclusively
//
// Usage recommendations:
//   - Direct declaration: var m Table[string, int]
//   - Pre-allocate buckets: New[string, int](WithCapacity(1024))
//
// Notes:
//   - Table must not be copied after first use; use Clone.
type Table[K comparable, V any] struct {
	_    noCopy
	once sync.Once
	mu   opt.RWMutex_

	buckets []bucket[K, V]
	arena   arena[K, V]
	size    int
	// gen changes whenever entries may move or disappear; iterators
	// created under an older gen are stale.
	gen     uint64
	growths uint32

	seed    uintptr
	keyHash HashFunc
	ratio   float64
	minCap  int
	maxCap  int
	logger  *zap.Logger
}

// New creates a new Table instance. Direct initialization is also
// supported.
//
// Parameters:
//   - options: configuration options (WithCapacity, WithKeyHasher, etc.)
func New[K comparable, V any](
	options ...func(*Config),
) *Table[K, V] {
	t := &Table[K, V]{}
	var cfg Config
	for _, o := range options {
		o(&cfg)
	}
	t.once.Do(func() { t.init(&cfg) })
	return t
}

// init applies cfg. Configuration priority (highest to lowest):
//   - Explicit With* functions
//   - IHashFunc implemented by the key type
//   - Default built-in hashers
func (t *Table[K, V]) init(cfg *Config) {
	t.keyHash = cfg.keyHash
	if t.keyHash == nil {
		t.keyHash = parseKeyInterface[K]()
	}
	if t.keyHash == nil {
		t.keyHash = defaultHasher[K]()
	}

	t.ratio = cfg.rehashRatio
	if !(t.ratio > 0) || math.IsInf(t.ratio, 0) {
		t.ratio = defaultRehashRatio
	}
	t.minCap = calcCapacity(cfg.capacity)
	t.maxCap = defaultMaxCapacity
	if cfg.maxCapacity > 0 {
		t.maxCap = max(cfg.maxCapacity, t.minCap)
	}
	t.logger = cfg.logger
	if t.logger == nil {
		t.logger = zap.NewNop()
	}

	t.seed = uintptr(rand.Uint64())
	t.buckets = make([]bucket[K, V], t.minCap)
}

// lazyInit readies a zero-value Table with the default configuration.
func (t *Table[K, V]) lazyInit() {
	t.once.Do(func() { t.init(&Config{}) })
}

//go:nosplit
func (t *Table[K, V]) hash(key *K) uintptr {
	return t.keyHash(noescape(unsafe.Pointer(key)), t.seed)
}

// index maps a hash to its bucket: hash mod capacity.
//
//go:nosplit
func (t *Table[K, V]) index(hash uintptr) int {
	return int(hash % uintptr(len(t.buckets)))
}

// Get returns the value stored for key. ok is false when the key is absent;
// a missing key never yields a fabricated value.
func (t *Table[K, V]) Get(key K) (value V, ok bool) {
	t.lazyInit()
	hash := t.hash(&key)

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buckets[t.index(hash)].get(&t.arena, hash, &key)
}

// Access returns a pointer to the value stored for key, creating a
// zero-valued entry first when the key is absent (subscript semantics).
//
// The pointer is only valid until the next mutating call on the table,
// which may move or free the entry. Use Compute to read-modify-write under
// the table lock.
func (t *Table[K, V]) Access(key K) (*V, error) {
	t.lazyInit()
	hash := t.hash(&key)

	t.mu.Lock()
	defer t.mu.Unlock()
	r, _, _, err := t.getOrCreateLocked(hash, &key)
	if err != nil {
		return nil, err
	}
	return &t.arena.at(r).value, nil
}

// Compute runs fn on the value stored for key while holding the write lock.
// An absent key is first created with the zero value; loaded reports
// whether it existed before the call.
//
// fn must not call back into the table.
func (t *Table[K, V]) Compute(
	key K,
	fn func(value *V, loaded bool),
) error {
	t.lazyInit()
	hash := t.hash(&key)

	t.mu.Lock()
	defer t.mu.Unlock()
	r, _, loaded, err := t.getOrCreateLocked(hash, &key)
	if err != nil {
		return err
	}
	fn(&t.arena.at(r).value, loaded)
	return nil
}

// Insert stores value for key, overwriting any previous value, and returns
// an iterator positioned on the entry. When the insertion grows the table
// the iterator already refers to the entry's bucket in the new array.
//
// On error nothing is inserted and the returned iterator is the end
// iterator.
func (t *Table[K, V]) Insert(key K, value V) (Iterator[K, V], error) {
	t.lazyInit()
	hash := t.hash(&key)

	t.mu.Lock()
	defer t.mu.Unlock()
	idx, err := t.prepareLocked(hash, &key)
	if err != nil {
		return t.endLocked(), err
	}
	r, err := t.buckets[idx].set(&t.arena, hash, &key, value, &t.size)
	if err != nil {
		return t.endLocked(), err
	}
	return Iterator[K, V]{t: t, index: idx, pos: r, gen: t.gen}, nil
}

// Delete removes key and returns its value. Outstanding iterators become
// stale.
func (t *Table[K, V]) Delete(key K) (value V, loaded bool) {
	t.lazyInit()
	hash := t.hash(&key)

	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.buckets[t.index(hash)].unlink(&t.arena, hash, &key)
	if r == 0 {
		return value, false
	}
	value = t.arena.at(r).value
	t.arena.release(r)
	t.size--
	t.gen++
	return value, true
}

func (t *Table[K, V]) getOrCreateLocked(
	hash uintptr,
	key *K,
) (r ref, idx int, loaded bool, err error) {
	if idx, err = t.prepareLocked(hash, key); err != nil {
		return 0, 0, false, err
	}
	r, loaded, err = t.buckets[idx].getOrCreate(&t.arena, hash, key, &t.size)
	return r, idx, loaded, err
}

// prepareLocked grows the table when adding key would push it over the
// load ratio, and returns the bucket index for key afterwards.
func (t *Table[K, V]) prepareLocked(hash uintptr, key *K) (int, error) {
	idx := t.index(hash)
	if t.buckets[idx].find(&t.arena, hash, key) != 0 {
		return idx, nil
	}
	if overLoad(t.size+1, len(t.buckets), t.ratio) {
		if err := t.growLocked(t.size + 1); err != nil {
			return 0, err
		}
		idx = t.index(hash)
	}
	return idx, nil
}

// Rehash doubles the capacity and redistributes every entry. The new
// bucket array is fully built before it replaces the old one, so a failure
// leaves the table untouched.
func (t *Table[K, V]) Rehash() error {
	t.lazyInit()

	t.mu.Lock()
	defer t.mu.Unlock()
	newCap, err := t.doubleLocked(len(t.buckets))
	if err != nil {
		return err
	}
	return t.rehashLocked(newCap)
}

// Reserve grows the table so that sizeAdd more entries fit without another
// rehash.
func (t *Table[K, V]) Reserve(sizeAdd int) error {
	if sizeAdd <= 0 {
		return nil
	}
	t.lazyInit()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.growLocked(t.size + sizeAdd)
}

func (t *Table[K, V]) growLocked(size int) error {
	newCap := len(t.buckets)
	for overLoad(size, newCap, t.ratio) {
		var err error
		if newCap, err = t.doubleLocked(newCap); err != nil {
			return err
		}
	}
	if newCap == len(t.buckets) {
		return nil
	}
	return t.rehashLocked(newCap)
}

func (t *Table[K, V]) doubleLocked(capacity int) (int, error) {
	if capacity > t.maxCap/2 {
		err := errors.Wrapf(ErrCapacityExceeded,
			"cannot grow %d buckets past limit %d", capacity, t.maxCap)
		t.logger.Warn("hashmap growth refused",
			zap.Int("capacity", len(t.buckets)),
			zap.Int("size", t.size),
			zap.Int("maxCapacity", t.maxCap),
		)
		return 0, err
	}
	return capacity * 2, nil
}

// rehashLocked moves every chain into a new array of newCap buckets. Only
// links change; entries keep their arena slot and cached hash.
func (t *Table[K, V]) rehashLocked(newCap int) error {
	buckets, err := makeBuckets[K, V](newCap)
	if err != nil {
		t.logger.Warn("hashmap growth failed",
			zap.Int("capacity", len(t.buckets)),
			zap.Int("newCapacity", newCap),
			zap.Error(err),
		)
		return err
	}
	for i := range t.buckets {
		for r := t.buckets[i].first(); r != 0; {
			e := t.arena.at(r)
			next := e.next
			buckets[int(e.hash%uintptr(newCap))].link(&t.arena, r)
			r = next
		}
	}

	oldCap := len(t.buckets)
	t.buckets = buckets
	t.gen++
	t.growths++
	t.logger.Debug("hashmap grown",
		zap.Int("capacity", oldCap),
		zap.Int("newCapacity", newCap),
		zap.Int("size", t.size),
	)
	return nil
}

// Size returns the number of key-value pairs in the table.
func (t *Table[K, V]) Size() int {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Empty reports whether the table holds no entries.
func (t *Table[K, V]) Empty() bool {
	return t.Size() == 0
}

// Capacity returns the current number of buckets.
func (t *Table[K, V]) Capacity() int {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buckets)
}

// Clear removes all entries and resets the bucket array to the initial
// capacity. Outstanding iterators become stale.
func (t *Table[K, V]) Clear() {
	t.lazyInit()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = make([]bucket[K, V], t.minCap)
	t.arena = arena[K, V]{}
	t.size = 0
	t.gen++
}

// Clone returns a deep copy of the table: same capacity, configuration and
// key-value pairs. Values are copied by assignment, so pointers inside
// values are shared.
func (t *Table[K, V]) Clone() *Table[K, V] {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	c := &Table[K, V]{
		buckets: slices.Clone(t.buckets),
		arena:   t.arena.clone(),
		size:    t.size,
		seed:    t.seed,
		keyHash: t.keyHash,
		ratio:   t.ratio,
		minCap:  t.minCap,
		maxCap:  t.maxCap,
		logger:  t.logger,
	}
	c.once.Do(func() {})
	return c
}

// Range calls yield for each key-value pair until yield returns false.
// The read lock is held for the whole iteration, so yield must not call
// any mutating method of the table.
func (t *Table[K, V]) Range(yield func(key K, value V) bool) {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	t.rangeLocked(func(e *entry[K, V]) bool {
		return yield(e.key, e.value)
	})
}

// All returns an iterator over key-value pairs for use with range-over-func.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return t.Range
}

// Keys returns an iterator over the keys of the table.
func (t *Table[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		t.Range(func(key K, _ V) bool {
			return yield(key)
		})
	}
}

// Values returns an iterator over the values of the table.
func (t *Table[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		t.Range(func(_ K, value V) bool {
			return yield(value)
		})
	}
}

// rangeLocked visits entries bucket by bucket, then along each chain: the
// same order Begin/Next produce.
func (t *Table[K, V]) rangeLocked(yield func(e *entry[K, V]) bool) {
	for i := range t.buckets {
		for r := t.buckets[i].first(); r != 0; {
			e := t.arena.at(r)
			r = e.next
			if !yield(e) {
				return
			}
		}
	}
}

// ToMap collects up to limit entries into a map[K]V, limit < 0 is no limit
func (t *Table[K, V]) ToMap(limit ...int) map[K]V {
	l := maxInt
	if len(limit) != 0 {
		l = limit[0]
		if l < 0 {
			l = maxInt
		}
		if l == 0 {
			return map[K]V{}
		}
	}

	t.lazyInit()
	t.mu.RLock()
	defer t.mu.RUnlock()
	a := make(map[K]V, min(t.size, l))
	t.rangeLocked(func(e *entry[K, V]) bool {
		a[e.key] = e.value
		l--
		return l > 0
	})
	return a
}

// String renders at most 1024 entries in fmt's map notation.
func (t *Table[K, V]) String() string {
	const limit = 1024
	return strings.Replace(fmt.Sprint(t.ToMap(limit)), "map[", "Table[", 1)
}
