package streamable

import (
	"context"

	"github.com/joeycumines/go-streamable/internal/pool"
)

// MapConfig configures Stream.Map and Stream.Foreach.
type MapConfig struct {
	// Concurrency is the number of worker goroutines applying fn, and the
	// prefetch budget: at most Concurrency upstream pulls may be
	// in-flight or buffered-undelivered at once (spec.md §5). Defaults to
	// 1 (strictly sequential) if <= 0.
	Concurrency int
	// Ordered requests delivery in upstream order. If false, results are
	// delivered in completion order, which can outrun upstream order
	// whenever Concurrency > 1 and fn's latency varies.
	Ordered bool
}

// Map applies fn to each upstream element, per MapConfig's concurrency and
// ordering. A panic or error from fn is surfaced as a *UserFunctionError
// at the position of the offending element (spec.md §4.1).
func Map[T, U any](s Stream[T], fn func(T) (U, error), config MapConfig) Stream[U] {
	if fn == nil {
		panic(&ParameterError{Op: "Map", Message: "fn must not be nil"})
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return downstream(s, nodeMap, "Map", func(ctx context.Context, up Iterator[T]) (Iterator[U], error) {
		worker := func(v T) (U, error) {
			var out U
			var outErr error
			err := recoverUserFunc("Map", func() {
				out, outErr = fn(v)
			})
			if err != nil {
				return out, err
			}
			if outErr != nil {
				return out, wrapUserFunc("Map", outErr)
			}
			return out, nil
		}
		p := pool.New[T, U](upstreamSource[T]{up}, worker, pool.Config{
			Concurrency: concurrency,
			Ordered:     config.Ordered,
			Done:        Done,
		})
		return &poolIterator[U]{p: p}, nil
	})
}

// Foreach calls fn for each upstream element for its side effect only,
// passing elements through unchanged. A panic or error from fn is
// surfaced as a *UserFunctionError at the position of the offending
// element (spec.md §4.1).
func (s Stream[T]) Foreach(fn func(T) error, config MapConfig) Stream[T] {
	if fn == nil {
		panic(&ParameterError{Op: "Foreach", Message: "fn must not be nil"})
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return downstream(s, nodeForeach, "Foreach", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		worker := func(v T) (T, error) {
			var zero T
			var userErr error
			err := recoverUserFunc("Foreach", func() {
				userErr = fn(v)
			})
			if err != nil {
				return zero, err
			}
			if userErr != nil {
				return zero, wrapUserFunc("Foreach", userErr)
			}
			return v, nil
		}
		p := pool.New[T, T](upstreamSource[T]{up}, worker, pool.Config{
			Concurrency: concurrency,
			Ordered:     config.Ordered,
			Done:        Done,
		})
		return &poolIterator[T]{p: p}, nil
	})
}

// upstreamSource adapts Iterator[T] to pool.Source[T], wrapping positional
// upstream errors as *UpstreamError so a result crossing the worker-pool's
// goroutine boundary can be told apart from one raised by fn itself.
type upstreamSource[T any] struct{ up Iterator[T] }

func (s upstreamSource[T]) Next(ctx context.Context) (T, error) {
	v, err := s.up.Next(ctx)
	if err != nil && err != Done {
		return v, wrapUpstream(err)
	}
	return v, err
}

// poolIterator adapts *pool.Pool[_, U] to Iterator[U].
type poolIterator[U any] struct{ p interface{ Next(context.Context) (U, error) } }

func (it *poolIterator[U]) Next(ctx context.Context) (U, error) { return it.p.Next(ctx) }
