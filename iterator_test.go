package streamable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	it := FromSlice([]int{1, 2})
	ctx := context.Background()

	v, err := it.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = it.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = it.Next(ctx)
	require.ErrorIs(t, err, Done)
	_, err = it.Next(ctx)
	require.ErrorIs(t, err, Done)
}

func TestEmpty(t *testing.T) {
	it := Empty[string]()
	_, err := it.Next(context.Background())
	require.ErrorIs(t, err, Done)
}

func TestToSlice_CollectsPastPositionalErrors(t *testing.T) {
	boom := &UserFunctionError{Op: "test"}
	calls := 0
	it := IteratorFunc[int](func(context.Context) (int, error) {
		calls++
		switch calls {
		case 1:
			return 1, nil
		case 2:
			return 0, boom
		case 3:
			return 2, nil
		default:
			return 0, Done
		}
	})
	got, err := ToSlice(context.Background(), it)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{1, 2}, got)
}
