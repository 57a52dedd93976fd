package streamable

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/go-streamable/internal/clock"
)

// BatchConfig configures Stream.Batch. One operator covers both "tumbling
// batch" (By left nil) and "keyed cogroup" (By set): elements sharing a
// key accumulate into the same open group.
type BatchConfig[T any, K comparable] struct {
	// Size, if > 0, closes a group as soon as it holds that many
	// elements. Zero means unbounded (rely on Interval / exhaustion
	// alone).
	Size int
	// Interval, if > 0, closes the oldest open group once its
	// first-element age reaches Interval. Zero means no age-based
	// flushing.
	Interval time.Duration
	// By computes the group key for an element. Defaults to a constant
	// key, i.e. plain tumbling batching, if nil.
	By func(T) K

	// clock overrides the time source; nil uses the real clock. Exposed
	// only to this package's own tests.
	clock clock.Clock
}

// Batch groups s per config, yielding each closed group as a []T (spec.md
// §4.2). At least one of Size or Interval must be set.
func Batch[T any, K comparable](s Stream[T], config BatchConfig[T, K]) Stream[[]T] {
	if config.Size <= 0 && config.Interval <= 0 {
		panic(&ParameterError{Op: "Batch", Message: "one of Size or Interval must be configured"})
	}
	by := config.By
	if by == nil {
		by = func(T) K { var zero K; return zero }
	}
	c := config.clock
	if c == nil {
		c = clock.Real
	}
	return downstream(s, nodeBatch, "Batch", func(ctx context.Context, up Iterator[T]) (Iterator[[]T], error) {
		return &batchIterator[T, K]{
			up: up, size: config.Size, interval: config.Interval, by: by, clock: c,
			groups: make(map[K]*group[T]),
		}, nil
	})
}

type group[T any] struct {
	items []T
	first time.Time
}

type pullResult[T any] struct {
	v   T
	err error
}

type batchIterator[T any, K comparable] struct {
	up       Iterator[T]
	size     int
	interval time.Duration
	by       func(T) K
	clock    clock.Clock

	groups map[K]*group[T]
	order  []K // creation order; order[0] is always the oldest open group

	startOnce    sync.Once
	startCtx     context.Context
	pullCh       chan pullResult[T]
	pullStarted  bool
	exhausted    bool
	pendingErr   error
	terminal     bool
}

func (it *batchIterator[T, K]) ensureStarted(ctx context.Context) {
	it.startOnce.Do(func() {
		it.startCtx = ctx
		it.pullCh = make(chan pullResult[T], 1)
	})
}

func (it *batchIterator[T, K]) oldestKey() (K, bool) {
	if len(it.order) == 0 {
		var zero K
		return zero, false
	}
	return it.order[0], true
}

// closeGroup removes and returns the named group's accumulated elements.
func (it *batchIterator[T, K]) closeGroup(k K) []T {
	g := it.groups[k]
	delete(it.groups, k)
	for i, ok := range it.order {
		if ok == k {
			it.order = append(it.order[:i], it.order[i+1:]...)
			break
		}
	}
	return g.items
}

func (it *batchIterator[T, K]) appendTo(k K, v T, now time.Time) {
	g, ok := it.groups[k]
	if !ok {
		g = &group[T]{first: now}
		it.groups[k] = g
		it.order = append(it.order, k)
	}
	g.items = append(g.items, v)
}

func (it *batchIterator[T, K]) Next(ctx context.Context) ([]T, error) {
	if it.terminal {
		return nil, Done
	}

	// A positional upstream error is always raised on the call following
	// the one that drained the oldest group ahead of it (spec.md §4.2).
	if it.pendingErr != nil {
		err := it.pendingErr
		it.pendingErr = nil
		return nil, err
	}

	it.ensureStarted(ctx)

	for {
		// 2. Oldest group's age >= interval: close it.
		if it.interval > 0 {
			if k, ok := it.oldestKey(); ok {
				if !it.clock.Now().Before(it.groups[k].first.Add(it.interval)) {
					return it.closeGroup(k), nil
				}
			}
		}

		if it.exhausted {
			if k, ok := it.oldestKey(); ok {
				return it.closeGroup(k), nil
			}
			it.terminal = true
			return nil, Done
		}

		if !it.pullStarted {
			it.pullStarted = true
			go func() {
				v, err := it.up.Next(it.startCtx)
				it.pullCh <- pullResult[T]{v: v, err: err}
			}()
		}

		var timerC <-chan time.Time
		var timer clock.Timer
		if it.interval > 0 {
			if k, ok := it.oldestKey(); ok {
				d := it.groups[k].first.Add(it.interval).Sub(it.clock.Now())
				if d < 0 {
					d = 0
				}
				timer = it.clock.NewTimer(d)
				timerC = timer.C()
			}
		}

		select {
		case r := <-it.pullCh:
			if timer != nil {
				timer.Stop()
			}
			it.pullStarted = false
			if r.err != nil {
				if r.err == Done {
					it.exhausted = true
					continue
				}
				// Positional upstream error: yield the oldest group now,
				// if any, deferring the error to the next call;
				// otherwise raise it immediately.
				if k, ok := it.oldestKey(); ok {
					it.pendingErr = wrapUpstream(r.err)
					return it.closeGroup(k), nil
				}
				return nil, wrapUpstream(r.err)
			}

			var key K
			werr := recoverUserFunc("Batch", func() { key = it.by(r.v) })
			if werr != nil {
				return nil, werr
			}

			it.appendTo(key, r.v, it.clock.Now())

			if it.size > 0 && len(it.groups[key].items) >= it.size {
				return it.closeGroup(key), nil
			}
			continue

		case <-timerC:
			if k, ok := it.oldestKey(); ok {
				return it.closeGroup(k), nil
			}
			continue

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		}
	}
}
