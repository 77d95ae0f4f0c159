package hashmap

// Iterator is a cursor over a Table: a bucket index plus a non-owning
// reference to an entry of that bucket's chain. It is either positioned on
// an entry or at the end (no entry, index == capacity).
//
// Each call takes the table's read lock (Set takes the write lock), so an
// iterator may be used alongside other goroutines, but it is invalidated by
// any growth, Delete or Clear. Using a stale iterator panics; so does
// dereferencing the end iterator. For a consistent view of the whole table
// use Range or All, which hold the read lock for the entire walk.
//
// Usage:
//
//	for it := m.Begin(); !it.Done(); it.Next() {
//		fmt.Println(it.Key(), it.Value())
//	}
type Iterator[K comparable, V any] struct {
	t     *Table[K, V]
	index int
	pos   ref
	gen   uint64
}

// Begin returns an iterator at the head of the first non-empty bucket, or
// the end iterator when the table is empty.
func (t *Table[K, V]) Begin() Iterator[K, V] {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.beginLocked()
}

// End returns the canonical end iterator.
func (t *Table[K, V]) End() Iterator[K, V] {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.endLocked()
}

func (t *Table[K, V]) beginLocked() Iterator[K, V] {
	it := Iterator[K, V]{t: t, index: -1, gen: t.gen}
	it.seekLocked()
	return it
}

func (t *Table[K, V]) endLocked() Iterator[K, V] {
	return Iterator[K, V]{t: t, index: len(t.buckets), gen: t.gen}
}

// Done reports whether the iterator is at the end.
func (it *Iterator[K, V]) Done() bool {
	return it.pos == 0
}

// Next advances to the following entry of the chain, or to the head of the
// next non-empty bucket, or to the end.
func (it *Iterator[K, V]) Next() {
	it.check()
	it.t.mu.RLock()
	defer it.t.mu.RUnlock()
	it.validLocked()

	if next := it.t.arena.at(it.pos).next; next != 0 {
		it.pos = next
		return
	}
	it.seekLocked()
}

// seekLocked moves to the head of the first non-empty bucket after index.
func (it *Iterator[K, V]) seekLocked() {
	n := len(it.t.buckets)
	for it.index++; it.index < n; it.index++ {
		if head := it.t.buckets[it.index].first(); head != 0 {
			it.pos = head
			return
		}
	}
	it.index, it.pos = n, 0
}

// Key returns the key of the current entry.
func (it *Iterator[K, V]) Key() K {
	it.check()
	it.t.mu.RLock()
	defer it.t.mu.RUnlock()
	it.validLocked()
	return it.t.arena.at(it.pos).key
}

// Value returns the value of the current entry.
func (it *Iterator[K, V]) Value() V {
	it.check()
	it.t.mu.RLock()
	defer it.t.mu.RUnlock()
	it.validLocked()
	return it.t.arena.at(it.pos).value
}

// Set replaces the value of the current entry in place.
func (it *Iterator[K, V]) Set(value V) {
	it.check()
	it.t.mu.Lock()
	defer it.t.mu.Unlock()
	it.validLocked()
	it.t.arena.at(it.pos).value = value
}

// Equal reports whether both iterators refer to the same entry and bucket
// index. Comparing iterators of different tables panics.
func (it *Iterator[K, V]) Equal(other Iterator[K, V]) bool {
	if it.t != other.t {
		panic(errForeignIterator)
	}
	return it.pos == other.pos && it.index == other.index
}

func (it *Iterator[K, V]) check() {
	if it.t == nil {
		panic(errNilIterator)
	}
}

func (it *Iterator[K, V]) validLocked() {
	if it.gen != it.t.gen {
		panic(errStaleIterator)
	}
	if it.pos == 0 {
		panic(errEndIterator)
	}
}
