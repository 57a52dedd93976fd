package streamable

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// sourceWithErrors yields a fixed sequence of (value, error) pairs, then
// Done, letting tests place positional errors exactly where they want.
func sourceWithErrors(pairs ...struct {
	v   int
	err error
}) Stream[int] {
	pos := 0
	return New[int](func(context.Context) (Iterator[int], error) {
		return IteratorFunc[int](func(context.Context) (int, error) {
			if pos >= len(pairs) {
				return 0, Done
			}
			p := pairs[pos]
			pos++
			return p.v, p.err
		}), nil
	})
}

func pair(v int, err error) struct {
	v   int
	err error
} {
	return struct {
		v   int
		err error
	}{v, err}
}

func TestCatch_AbsorbsAndSkips(t *testing.T) {
	boom := errors.New("boom")
	s := sourceWithErrors(pair(1, nil), pair(0, boom), pair(2, nil)).
		Catch(CatchConfig[int]{})
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

func TestCatch_Replacement(t *testing.T) {
	boom := errors.New("boom")
	s := sourceWithErrors(pair(1, nil), pair(0, boom), pair(2, nil)).
		Catch(CatchConfig[int]{Replacement: -1, HasReplacement: true})
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, -1, 2}, got)
}

type kindAError struct{ msg string }

func (e *kindAError) Error() string { return e.msg }

func TestCatch_WhenFiltersKind(t *testing.T) {
	absorbed := &kindAError{msg: "absorbed"}
	uncaught := errors.New("uncaught")
	onlyKindA := CatchConfig[int]{When: func(err error) bool {
		var a *kindAError
		return errors.As(err, &a)
	}}

	// The matching kind is absorbed and skipped.
	s := sourceWithErrors(pair(1, nil), pair(0, absorbed), pair(2, nil)).Catch(onlyKindA)
	got, err := s.Slice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)

	// A non-matching kind propagates unchanged.
	s = sourceWithErrors(pair(1, nil), pair(0, uncaught), pair(2, nil)).Catch(onlyKindA)
	it, err := s.Open(context.Background())
	require.NoError(t, err)

	v, err := it.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = it.Next(context.Background())
	require.ErrorIs(t, err, uncaught)
}

func TestCatch_FinallyRaiseOnce(t *testing.T) {
	errA := errors.New("first")
	errB := errors.New("second")
	s := sourceWithErrors(
		pair(0, errA),
		pair(1, nil),
		pair(2, nil),
		pair(0, errB),
		pair(3, nil),
	).Catch(CatchConfig[int]{FinallyRaise: true})

	it, err := s.Open(context.Background())
	require.NoError(t, err)

	var got []int
	for i := 0; i < 3; i++ {
		v, err := it.Next(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2, 3}, got)

	_, err = it.Next(context.Background())
	require.ErrorIs(t, err, errA)

	_, err = it.Next(context.Background())
	require.ErrorIs(t, err, Done)
}
