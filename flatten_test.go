package streamable

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlatten_SequentialPreservesOrder(t *testing.T) {
	s := Flatten(Of(Of(1, 2), Of(3, 4), Of(5)), FlattenConfig{Concurrency: 1})
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestFlatten_ConcurrentYieldsEverySubStreamElement(t *testing.T) {
	s := Flatten(Of(Of(1, 2, 3), Of(4, 5), Of(6)), FlattenConfig{Concurrency: 3})
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	sort.Ints(got)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
}

func TestFlatten_EmptySubStreamsContributeNothing(t *testing.T) {
	s := Flatten(Of(Of[int](), Of(1), Of[int]()), FlattenConfig{})
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1}, got)
}

func TestFlatten_SubStreamErrorIsWrappedAndPositional(t *testing.T) {
	boom := errors.New("boom")
	bad := sourceWithErrors(pair(1, nil), pair(0, boom))
	s := Flatten(Of(bad), FlattenConfig{Concurrency: 1})

	it, err := s.Open(context.Background())
	require.NoError(t, err)

	v, err := it.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = it.Next(context.Background())
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.ErrorIs(t, err, boom)
}

func TestChain_ConcatenatesInOrder(t *testing.T) {
	s := Chain(Of(1, 2), Of(3), Of(4, 5))
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestChain_Empty(t *testing.T) {
	s := Chain[int]()
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFlatten_IsAssociativeUnderConcurrencyOne(t *testing.T) {
	left := Chain(Chain(Of(1, 2), Of(3)), Of(4))
	right := Chain(Of(1, 2), Chain(Of(3), Of(4)))

	gotLeft, err := left.Slice(context.Background())
	require.NoError(t, err)
	gotRight, err := right.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, gotLeft, gotRight)
}
