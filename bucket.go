package hashmap

import "github.com/cockroachdb/errors"

// ref is a 1-based reference into the entry arena; the zero ref is nil.
type ref uint32

// entry is one key-value pair. The hash is cached so that growth can
// re-link entries without calling the hasher again.
type entry[K comparable, V any] struct {
	hash  uintptr
	key   K
	value V
	next  ref
}

// arena owns every entry of a table. Chains link entries by ref, so there
// is no per-entry allocation and no recursive teardown.
type arena[K comparable, V any] struct {
	entries []entry[K, V]
	free    []ref
}

//go:nosplit
func (a *arena[K, V]) at(r ref) *entry[K, V] {
	return &a.entries[r-1]
}

func (a *arena[K, V]) alloc(hash uintptr, key *K) (ref, error) {
	if n := len(a.free); n > 0 {
		r := a.free[n-1]
		a.free = a.free[:n-1]
		e := a.at(r)
		e.hash, e.key = hash, *key
		return r, nil
	}
	if uint64(len(a.entries)) >= maxEntries {
		return 0, errors.Wrapf(ErrCapacityExceeded, "%d entries", len(a.entries))
	}
	a.entries = append(a.entries, entry[K, V]{hash: hash, key: *key})
	return ref(len(a.entries)), nil
}

// release clears the entry so it stops retaining its key and value, then
// queues the slot for reuse.
func (a *arena[K, V]) release(r ref) {
	*a.at(r) = entry[K, V]{}
	a.free = append(a.free, r)
}

func (a *arena[K, V]) clone() arena[K, V] {
	c := arena[K, V]{
		entries: make([]entry[K, V], len(a.entries), cap(a.entries)),
	}
	copy(c.entries, a.entries)
	if len(a.free) != 0 {
		c.free = append([]ref(nil), a.free...)
	}
	return c
}

// bucket is the head of one chain. New entries are prepended.
type bucket[K comparable, V any] struct {
	head ref
}

// find scans the chain for key.
func (b *bucket[K, V]) find(a *arena[K, V], hash uintptr, key *K) ref {
	for r := b.head; r != 0; {
		e := a.at(r)
		if e.hash == hash && e.key == *key {
			return r
		}
		r = e.next
	}
	return 0
}

func (b *bucket[K, V]) get(a *arena[K, V], hash uintptr, key *K) (value V, ok bool) {
	if r := b.find(a, hash, key); r != 0 {
		return a.at(r).value, true
	}
	return value, false
}

// set overwrites the value of key in place, or links a new entry and bumps
// size.
func (b *bucket[K, V]) set(
	a *arena[K, V],
	hash uintptr,
	key *K,
	value V,
	size *int,
) (ref, error) {
	r, _, err := b.getOrCreate(a, hash, key, size)
	if err != nil {
		return 0, err
	}
	a.at(r).value = value
	return r, nil
}

// getOrCreate returns the entry for key, linking a zero-valued one (and
// bumping size) when absent. loaded reports whether it already existed.
func (b *bucket[K, V]) getOrCreate(
	a *arena[K, V],
	hash uintptr,
	key *K,
	size *int,
) (r ref, loaded bool, err error) {
	if r = b.find(a, hash, key); r != 0 {
		return r, true, nil
	}
	if r, err = a.alloc(hash, key); err != nil {
		return 0, false, err
	}
	b.link(a, r)
	*size++
	return r, false, nil
}

// link prepends r to the chain.
//
//go:nosplit
func (b *bucket[K, V]) link(a *arena[K, V], r ref) {
	a.at(r).next = b.head
	b.head = r
}

// unlink detaches the entry for key from the chain and returns it, or 0.
func (b *bucket[K, V]) unlink(a *arena[K, V], hash uintptr, key *K) ref {
	for p := &b.head; *p != 0; {
		e := a.at(*p)
		if e.hash == hash && e.key == *key {
			r := *p
			*p = e.next
			e.next = 0
			return r
		}
		p = &e.next
	}
	return 0
}

//go:nosplit
func (b *bucket[K, V]) first() ref {
	return b.head
}
