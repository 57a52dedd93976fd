package pool

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errDone = errors.New("test: done")

// sliceSource is a minimal Source[int] over a fixed slice, counting
// concurrent calls to Next so tests can assert on the prefetch budget.
type sliceSource struct {
	mu          sync.Mutex
	items       []int
	pos         int
	delay       time.Duration
	pulled      int
	inflight    int
	maxInFlight int
}

func (s *sliceSource) Next(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.inflight++
	if s.inflight > s.maxInFlight {
		s.maxInFlight = s.inflight
	}
	s.pulled++
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if s.pos >= len(s.items) {
		return 0, errDone
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

func TestPool_OrderedMatchesSequential(t *testing.T) {
	src := &sliceSource{items: []int{0, 1, 2, 3, 4, 5, 6, 7}}
	double := func(v int) (int, error) { return v * 2, nil }
	p := New[int, int](src, double, Config{Concurrency: 4, Ordered: true, Done: errDone})

	var got []int
	for {
		v, err := p.Next(context.Background())
		if err == errDone {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14}, got)
}

func TestPool_UnorderedIsPermutation(t *testing.T) {
	src := &sliceSource{items: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
	square := func(v int) (int, error) { return v * v, nil }
	p := New[int, int](src, square, Config{Concurrency: 3, Ordered: false, Done: errDone})

	var got []int
	for {
		v, err := p.Next(context.Background())
		if err == errDone {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, got)
}

// TestPool_UnorderedDeliversAllDespiteVariableLatency guards against a
// terminal signal racing ahead of slower, still-in-flight real results: the
// spec.md §8 scenario 2 shape (delays 0.1, 0.01, 0.2 — the slowest item is
// submitted last and must still be delivered before Done).
func TestPool_UnorderedDeliversAllDespiteVariableLatency(t *testing.T) {
	delays := []time.Duration{100 * time.Millisecond, 10 * time.Millisecond, 200 * time.Millisecond}
	var mu sync.Mutex
	var pos int
	src := IteratorFunc[time.Duration](func(ctx context.Context) (time.Duration, error) {
		mu.Lock()
		defer mu.Unlock()
		if pos >= len(delays) {
			return 0, errDone
		}
		v := delays[pos]
		pos++
		return v, nil
	})
	sleepThenReturn := func(d time.Duration) (time.Duration, error) {
		time.Sleep(d)
		return d, nil
	}
	p := New[time.Duration, time.Duration](src, sleepThenReturn, Config{Concurrency: 2, Ordered: false, Done: errDone})

	var got []time.Duration
	for {
		v, err := p.Next(context.Background())
		if err == errDone {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := append([]time.Duration(nil), delays...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	require.Equal(t, want, got)
}

// IteratorFunc adapts a plain function to Source[T], mirroring the package
// streamable's own IteratorFunc convenience type.
type IteratorFunc[T any] func(ctx context.Context) (T, error)

func (f IteratorFunc[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

func TestPool_PrefetchBound(t *testing.T) {
	src := &sliceSource{items: make([]int, 100), delay: 20 * time.Millisecond}
	identity := func(v int) (int, error) { return v, nil }
	p := New[int, int](src, identity, Config{Concurrency: 3, Ordered: true, Done: errDone})

	_, err := p.Next(context.Background())
	require.NoError(t, err)

	// settle: give in-flight goroutines a moment to report their peak.
	time.Sleep(50 * time.Millisecond)
	src.mu.Lock()
	defer src.mu.Unlock()
	require.LessOrEqual(t, src.pulled, 4) // C + 1, per spec.md §8 property 7
}

func TestPool_PropagatesFnError(t *testing.T) {
	src := &sliceSource{items: []int{1, 2, 0, 4}}
	boom := errors.New("boom")
	divide := func(v int) (int, error) {
		if v == 0 {
			return 0, boom
		}
		return 10 / v, nil
	}
	p := New[int, int](src, divide, Config{Concurrency: 1, Ordered: true, Done: errDone})

	var results []int
	var sawErr error
	for {
		v, err := p.Next(context.Background())
		if err == errDone {
			break
		}
		if err != nil {
			sawErr = err
			continue
		}
		results = append(results, v)
	}
	require.ErrorIs(t, sawErr, boom)
	require.Equal(t, []int{10, 5, 2}, results)
}

func TestPool_ClosePropagatesCancellation(t *testing.T) {
	src := &sliceSource{items: make([]int, 1000), delay: 5 * time.Millisecond}
	identity := func(v int) (int, error) { return v, nil }
	p := New[int, int](src, identity, Config{Concurrency: 2, Ordered: false, Done: errDone})

	_, err := p.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
