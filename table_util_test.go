package hashmap

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestCalcCapacity(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-1, 4}, {0, 4}, {3, 4}, {4, 4}, {5, 5}, {10, 10}, {1000, 1000},
	}
	for _, c := range cases {
		if got := calcCapacity(c.in); got != c.want {
			t.Fatalf("calcCapacity(%d)=%d want=%d", c.in, got, c.want)
		}
	}
}

func TestOverLoad(t *testing.T) {
	require.False(t, overLoad(3, 4, 0.75))
	require.True(t, overLoad(4, 4, 0.75))
	require.False(t, overLoad(8, 4, 2))
	require.True(t, overLoad(9, 4, 2))
}

func TestDefaultHasher_Integers(t *testing.T) {
	h := defaultHasher[int]()
	for _, k := range []int{0, 1, 7, 1 << 20} {
		require.Equal(t, uintptr(k), h(unsafe.Pointer(&k), 12345))
	}
	h8 := defaultHasher[uint8]()
	b := uint8(200)
	require.Equal(t, uintptr(200), h8(unsafe.Pointer(&b), 0))
}

func TestDefaultHasher_Strings(t *testing.T) {
	h := defaultHasher[string]()

	short := "str_1"
	require.Equal(t, h(unsafe.Pointer(&short), 9), h(unsafe.Pointer(&short), 9))
	other := "str_2"
	require.NotEqual(t, h(unsafe.Pointer(&short), 9), h(unsafe.Pointer(&other), 9))

	long := strings.Repeat("x", 64)
	require.Equal(t, uintptr(xxhash.Sum64String(long))^7, h(unsafe.Pointer(&long), 7))
}

func TestDefaultHasher_Fallback(t *testing.T) {
	type pair struct {
		a string
		b int
	}
	h := defaultHasher[pair]()
	p1, p2 := pair{"a", 1}, pair{"a", 1}
	require.Equal(t, h(unsafe.Pointer(&p1), 0), h(unsafe.Pointer(&p2), 0))
}

func TestGetBuiltInHasher(t *testing.T) {
	h := GetBuiltInHasher[string]()
	s1, s2 := "same", strings.Clone("same")
	require.Equal(t, h(unsafe.Pointer(&s1), 3), h(unsafe.Pointer(&s2), 3))
}
