package hashmap

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator_EmptyTable(t *testing.T) {
	m := New[string, int]()
	begin, end := m.Begin(), m.End()
	require.True(t, begin.Done())
	require.True(t, begin.Equal(end))
	require.Equal(t, m.Capacity(), end.index)
}

func TestIterator_Completeness(t *testing.T) {
	m := New[string, int](WithCapacity(10))
	for i := range 100 {
		mustInsert(t, m, "key_"+strconv.Itoa(i), i)
	}

	seen := make(map[string]int)
	end := m.End()
	for it := m.Begin(); !it.Equal(end); it.Next() {
		seen[it.Key()]++
		require.Equal(t, "key_"+strconv.Itoa(it.Value()), it.Key())
	}
	require.Len(t, seen, 100)
	for k, n := range seen {
		require.Equal(t, 1, n, "key %s visited %d times", k, n)
	}
}

func TestIterator_MatchesRangeOrder(t *testing.T) {
	m := New[int, int](WithKeyHasher(murmur3Finalizer))
	for i := range 300 {
		mustInsert(t, m, i, i)
	}
	var fromRange []int
	m.Range(func(k, _ int) bool {
		fromRange = append(fromRange, k)
		return true
	})
	var fromIter []int
	for it := m.Begin(); !it.Done(); it.Next() {
		fromIter = append(fromIter, it.Key())
	}
	require.Equal(t, fromRange, fromIter)
}

func TestIterator_WalksChains(t *testing.T) {
	m := New[int, int](WithKeyHasher(func(i int, _ uintptr) uintptr {
		return uintptr(i % 2)
	}), WithCapacity(16))
	for i := range 10 {
		mustInsert(t, m, i, i)
	}
	require.Equal(t, 5, m.Stats().MaxChain)

	n := 0
	for it := m.Begin(); !it.Done(); it.Next() {
		n++
	}
	require.Equal(t, 10, n)
}

func TestIterator_Set(t *testing.T) {
	m := New[string, int]()
	it, err := m.Insert("k", 1)
	require.NoError(t, err)
	it.Set(42)
	v, _ := m.Get("k")
	require.Equal(t, 42, v)

	for it := m.Begin(); !it.Done(); it.Next() {
		it.Set(it.Value() + 1)
	}
	v, _ = m.Get("k")
	require.Equal(t, 43, v)
}

func TestIterator_SurvivesOverwrite(t *testing.T) {
	m := New[string, int]()
	mustInsert(t, m, "a", 1)
	it := m.Begin()
	mustInsert(t, m, "a", 2)
	require.Equal(t, 2, it.Value())
}

func TestIterator_StaleAfterGrowth(t *testing.T) {
	m := New[int, int]()
	mustInsert(t, m, 0, 0)
	it := m.Begin()
	for i := 1; i < 10; i++ {
		mustInsert(t, m, i, i)
	}
	require.PanicsWithValue(t, errStaleIterator, func() { it.Key() })
	require.PanicsWithValue(t, errStaleIterator, func() { it.Next() })

	// the table is still usable after the panics
	require.Equal(t, 10, m.Size())
}

func TestIterator_StaleAfterDeleteAndClear(t *testing.T) {
	m := New[int, int]()
	mustInsert(t, m, 1, 1)
	mustInsert(t, m, 2, 2)

	it := m.Begin()
	m.Delete(2)
	require.PanicsWithValue(t, errStaleIterator, func() { it.Value() })

	it = m.Begin()
	m.Clear()
	require.PanicsWithValue(t, errStaleIterator, func() { it.Set(3) })
}

func TestIterator_EndMisuse(t *testing.T) {
	m := New[int, int]()
	mustInsert(t, m, 1, 1)
	end := m.End()
	require.PanicsWithValue(t, errEndIterator, func() { end.Key() })
	require.PanicsWithValue(t, errEndIterator, func() { end.Next() })

	var zero Iterator[int, int]
	require.True(t, zero.Done())
	require.PanicsWithValue(t, errNilIterator, func() { zero.Value() })
}

func TestIterator_ForeignTables(t *testing.T) {
	a, b := New[int, int](), New[int, int]()
	it := a.Begin()
	require.PanicsWithValue(t, errForeignIterator, func() { it.Equal(b.End()) })
}
