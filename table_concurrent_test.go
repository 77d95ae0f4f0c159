package hashmap

import (
	"runtime"
	"strconv"
	"sync"
	"testing"

	"github.com/llxisdsh/pb"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTable_TwoWritersDisjointRanges(t *testing.T) {
	m := New[int, int](WithCapacity(4))

	var wg sync.WaitGroup
	wg.Add(2)
	insertRange := func(lo, hi int) {
		defer wg.Done()
		for i := lo; i < hi; i++ {
			if _, err := m.Insert(i, i); err != nil {
				t.Errorf("insert %d: %v", i, err)
				return
			}
			_ = m.Size()
		}
	}
	go insertRange(0, 10)
	go insertRange(10, 20)
	wg.Wait()

	require.Equal(t, 20, m.Size())
	for i := range 20 {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d", i)
		require.Equal(t, i, v)
	}
}

func TestTable_ConcurrentWritersAgainstModel(t *testing.T) {
	const perWriter = 2000
	writers := max(4, runtime.GOMAXPROCS(0))

	m := New[string, int]()
	var model pb.MapOf[string, int]

	var g errgroup.Group
	for w := range writers {
		g.Go(func() error {
			for i := range perWriter {
				k := strconv.Itoa(w) + "/" + strconv.Itoa(i)
				if _, err := m.Insert(k, i); err != nil {
					return err
				}
				model.Store(k, i)
				if i%3 == 0 {
					// overwrite must not change the size
					if _, err := m.Insert(k, -i); err != nil {
						return err
					}
					model.Store(k, -i)
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	for range 2 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				_, _ = m.Get("0/0")
				m.Range(func(string, int) bool { return true })
				_ = m.Stats()
			}
		}()
	}

	require.NoError(t, g.Wait())
	close(done)
	readers.Wait()

	require.Equal(t, model.Size(), m.Size())
	require.Equal(t, writers*perWriter, m.Size())
	model.Range(func(k string, want int) bool {
		got, ok := m.Get(k)
		require.True(t, ok, "key %s", k)
		require.Equal(t, want, got, "key %s", k)
		return true
	})
}

func TestTable_ConcurrentCompute(t *testing.T) {
	const (
		goroutines = 8
		increments = 1000
	)
	m := New[string, int]()

	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			for range increments {
				if err := m.Compute("hits", func(v *int, _ bool) { *v++ }); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	v, ok := m.Get("hits")
	require.True(t, ok)
	require.Equal(t, goroutines*increments, v)
	require.Equal(t, 1, m.Size())
}

func TestTable_ConcurrentDeleteAndInsert(t *testing.T) {
	m := New[int, int]()
	for i := range 1000 {
		mustInsert(t, m, i, i)
	}

	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < 1000; i += 2 {
			m.Delete(i)
		}
		return nil
	})
	g.Go(func() error {
		for i := 1000; i < 2000; i++ {
			if _, err := m.Insert(i, i); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for range 50 {
			_ = m.Clone()
		}
		return nil
	})
	require.NoError(t, g.Wait())

	require.Equal(t, 1500, m.Size())
	for i := range 2000 {
		_, ok := m.Get(i)
		require.Equal(t, i >= 1000 || i%2 == 1, ok, "key %d", i)
	}
}
