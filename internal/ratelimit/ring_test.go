package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_AppendAndGet(t *testing.T) {
	r := newRing(2)
	for i := int64(0); i < 10; i++ {
		r.Append(i)
	}
	require.Equal(t, 10, r.Len())
	for i := 0; i < 10; i++ {
		require.Equal(t, int64(i), r.Get(i))
	}
}

func TestRing_RemoveBefore(t *testing.T) {
	r := newRing(4)
	for i := int64(0); i < 5; i++ {
		r.Append(i)
	}
	r.RemoveBefore(3)
	require.Equal(t, 2, r.Len())
	require.Equal(t, int64(3), r.Get(0))
	require.Equal(t, int64(4), r.Get(1))
}

func TestRing_Search(t *testing.T) {
	r := newRing(8)
	for _, v := range []int64{1, 3, 5, 7, 9} {
		r.Append(v)
	}
	require.Equal(t, 0, r.Search(0))
	require.Equal(t, 2, r.Search(5))
	require.Equal(t, 3, r.Search(6))
	require.Equal(t, 5, r.Search(10))
}

func TestRing_NewRingPanicsOnNonPowerOfTwo(t *testing.T) {
	require.Panics(t, func() { newRing(3) })
	require.Panics(t, func() { newRing(0) })
}
