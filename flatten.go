package streamable

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// FlattenConfig configures Flatten.
type FlattenConfig struct {
	// Concurrency is the number of sub-streams drained at once. Defaults
	// to 1 (strictly sequential: each sub-stream is exhausted before the
	// next is opened) if <= 0.
	Concurrency int
}

// Flatten drains up to Concurrency sub-streams at once, yielding their
// elements into one sequence.
//
// With Concurrency == 1 this is strictly sequential: sub-streams are
// opened and exhausted one at a time, in upstream order — which makes
// flatten associative over concatenation (spec.md §8 property 6).
//
// With Concurrency > 1, admitted sub-streams are independent producers
// into a shared output: whichever admitted sub-stream has an element
// ready goes first. The source spec leaves the exact fairness policy
// between concurrent sub-streams unpinned (spec.md §9's open question);
// this resolves it as "fastest wins, no forced round-robin" rather than
// lock-stepping every slot to the slowest one, per the spec's own
// recommended resolution.
func Flatten[U any](s Stream[Stream[U]], config FlattenConfig) Stream[U] {
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return downstream(s, nodeFlatten, "Flatten", func(ctx context.Context, up Iterator[Stream[U]]) (Iterator[U], error) {
		return &flattenIterator[U]{up: up, concurrency: concurrency}, nil
	})
}

// Chain concatenates streams in order, as if by Flatten with
// Concurrency: 1 over a source yielding exactly those streams
// (SPEC_FULL.md §C.2 — the Go analogue of the original's Stream.__add__
// sugar).
func Chain[T any](streams ...Stream[T]) Stream[T] {
	return Flatten(Of(streams...), FlattenConfig{Concurrency: 1})
}

type flattenItem[U any] struct {
	v   U
	err error
}

type flattenIterator[U any] struct {
	up          Iterator[Stream[U]]
	concurrency int

	startOnce sync.Once
	cancel    context.CancelFunc
	eg        *errgroup.Group
	out       chan flattenItem[U]

	mu   sync.Mutex
	done bool
}

func (it *flattenIterator[U]) start(ctx context.Context) {
	it.startOnce.Do(func() {
		cctx, cancel := context.WithCancel(ctx)
		it.cancel = cancel
		eg, egCtx := errgroup.WithContext(cctx)
		it.eg = eg
		it.out = make(chan flattenItem[U], it.concurrency)
		sem := semaphore.NewWeighted(int64(it.concurrency))

		eg.Go(func() error {
			var wg sync.WaitGroup
			defer func() {
				wg.Wait()
				close(it.out)
			}()
			for {
				if err := sem.Acquire(egCtx, 1); err != nil {
					return nil
				}
				sub, err := it.up.Next(egCtx)
				if err != nil {
					if err == Done {
						sem.Release(1)
						return nil
					}
					it.emit(egCtx, flattenItem[U]{err: wrapUpstream(err)})
					sem.Release(1)
					continue
				}
				wg.Add(1)
				go it.drain(egCtx, sub, sem.Release, wg.Done)
			}
		})
	})
}

// drain opens and fully exhausts one admitted sub-stream, forwarding its
// elements and positional errors into the shared output, then releases
// its concurrency slot and admission-tracking.
func (it *flattenIterator[U]) drain(ctx context.Context, sub Stream[U], release func(int64), done func()) {
	defer done()
	defer release(1)

	subIt, err := sub.Open(ctx)
	if err != nil {
		it.emit(ctx, flattenItem[U]{err: wrapUpstream(err)})
		return
	}
	for {
		v, err := subIt.Next(ctx)
		if err != nil {
			if err == Done {
				return
			}
			if !it.emit(ctx, flattenItem[U]{err: wrapUpstream(err)}) {
				return
			}
			continue
		}
		if !it.emit(ctx, flattenItem[U]{v: v}) {
			return
		}
	}
}

// emit sends item to the shared output, returning false if ctx was
// cancelled first.
func (it *flattenIterator[U]) emit(ctx context.Context, item flattenItem[U]) bool {
	select {
	case it.out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

func (it *flattenIterator[U]) Next(ctx context.Context) (U, error) {
	var zero U

	it.mu.Lock()
	if it.done {
		it.mu.Unlock()
		return zero, Done
	}
	it.mu.Unlock()

	it.start(ctx)

	select {
	case item, ok := <-it.out:
		if !ok {
			it.mu.Lock()
			it.done = true
			it.mu.Unlock()
			return zero, Done
		}
		return item.v, item.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
