package hashmap

import (
	"fmt"
	"strings"
)

// Stats is a snapshot of a Table's bucket layout.
//
// Notes:
//   - Stats are intended for diagnostics and tests, not for production
//     decisions; fields may change between minor releases.
type Stats struct {
	// Capacity is the number of buckets.
	Capacity int
	// Size is the number of live entries.
	Size int
	// EmptyBuckets is the number of buckets whose chain is empty.
	EmptyBuckets int
	// MinChain is the length of the shortest chain.
	MinChain int
	// MaxChain is the length of the longest chain.
	MaxChain int
	// LoadFactor is Size / Capacity.
	LoadFactor float64
	// RehashRatio is the load factor above which the table grows.
	RehashRatio float64
	// FreeEntries is the number of arena slots waiting for reuse.
	FreeEntries int
	// TotalGrowths is the number of times the bucket array was replaced
	// by a larger one.
	TotalGrowths uint32
}

// String returns string representation of table stats.
func (s *Stats) String() string {
	var sb strings.Builder
	sb.WriteString("Stats{\n")
	sb.WriteString(fmt.Sprintf("Capacity:     %d\n", s.Capacity))
	sb.WriteString(fmt.Sprintf("Size:         %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("EmptyBuckets: %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("MinChain:     %d\n", s.MinChain))
	sb.WriteString(fmt.Sprintf("MaxChain:     %d\n", s.MaxChain))
	sb.WriteString(fmt.Sprintf("LoadFactor:   %.3f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("RehashRatio:  %.3f\n", s.RehashRatio))
	sb.WriteString(fmt.Sprintf("FreeEntries:  %d\n", s.FreeEntries))
	sb.WriteString(fmt.Sprintf("TotalGrowths: %d\n", s.TotalGrowths))
	sb.WriteString("}\n")
	return sb.String()
}

// Stats walks every chain and returns the layout of the table. It is an
// O(capacity + size) operation under the read lock.
func (t *Table[K, V]) Stats() *Stats {
	t.lazyInit()

	t.mu.RLock()
	defer t.mu.RUnlock()
	stats := &Stats{
		Capacity:     len(t.buckets),
		Size:         t.size,
		RehashRatio:  t.ratio,
		FreeEntries:  len(t.arena.free),
		TotalGrowths: t.growths,
		MinChain:     maxInt,
	}
	for i := range t.buckets {
		chain := 0
		for r := t.buckets[i].first(); r != 0; r = t.arena.at(r).next {
			chain++
		}
		if chain == 0 {
			stats.EmptyBuckets++
		}
		stats.MinChain = min(stats.MinChain, chain)
		stats.MaxChain = max(stats.MaxChain, chain)
	}
	stats.LoadFactor = float64(stats.Size) / float64(stats.Capacity)
	return stats
}
