package streamable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOf_Slice(t *testing.T) {
	s := Of(1, 2, 3)
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestStream_IndependentMaterializations(t *testing.T) {
	s := Of(1, 2, 3)
	a, err := s.Slice(context.Background())
	require.NoError(t, err)
	b, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestNew_NilFactoryPanics(t *testing.T) {
	require.Panics(t, func() { New[int](nil) })
}

func TestStream_Exhaust(t *testing.T) {
	s := Of(1, 2, 3)
	count, err := s.Exhaust(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestNew_NilIteratorIsSourceError(t *testing.T) {
	s := New[int](func(context.Context) (Iterator[int], error) { return nil, nil })
	_, err := s.Open(context.Background())
	var se *SourceError
	require.ErrorAs(t, err, &se)
}
