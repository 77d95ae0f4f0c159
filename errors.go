package hashmap

import "github.com/cockroachdb/errors"

var (
	// ErrCapacityExceeded is returned when growing the table would go past
	// the bucket limit set by WithMaxCapacity, or the entry arena is full.
	ErrCapacityExceeded = errors.New("hashmap: capacity limit exceeded")
	// ErrAllocation is returned when the runtime refuses to allocate a new
	// bucket array. The table keeps its previous array.
	ErrAllocation = errors.New("hashmap: bucket allocation failed")
)

// Iterator misuse is a programming error and panics with one of these.
const (
	errNilIterator     = "hashmap: iterator has no table"
	errEndIterator     = "hashmap: dereference of end iterator"
	errStaleIterator   = "hashmap: iterator invalidated by a structural change"
	errForeignIterator = "hashmap: comparing iterators of different tables"
)
