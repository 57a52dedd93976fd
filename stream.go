package streamable

import "context"

// Factory produces the input sequence for a Stream. It is invoked exactly
// once per materialization (spec.md §3, invariant 2); its returned
// Iterator is never shared across materializations.
type Factory[T any] func(ctx context.Context) (Iterator[T], error)

// Stream is an immutable, linear chain of operator descriptors rooted at
// a source Factory. A Stream value is cheap and safe to share; iterating
// it (Open) produces a fresh, single-consumer Iterator every time.
type Stream[T any] struct {
	n    *node
	open func(ctx context.Context) (Iterator[T], error)
}

// New builds a Stream whose source is factory. Panics with a
// *SourceError if factory is nil.
func New[T any](factory Factory[T]) Stream[T] {
	if factory == nil {
		panic(&SourceError{Message: "factory must not be nil"})
	}
	return Stream[T]{
		n: &node{kind: nodeSource, label: "New"},
		open: func(ctx context.Context) (Iterator[T], error) {
			it, err := factory(ctx)
			if err != nil {
				return nil, err
			}
			if it == nil {
				return nil, &SourceError{Message: "factory returned a nil Iterator"}
			}
			return it, nil
		},
	}
}

// Of builds a Stream over a fixed, fully in-memory sequence of values. The
// slice is not copied; each materialization iterates its own cursor over
// the same backing array, so it is safe to materialize Of streams more
// than once.
func Of[T any](values ...T) Stream[T] {
	return New(func(context.Context) (Iterator[T], error) {
		return FromSlice(values), nil
	})
}

// downstream builds a Stream[U] chained from s, recording kind/label
// lineage and composing open behind ctor, which receives the freshly
// opened upstream Iterator[T] for this materialization.
func downstream[T, U any](s Stream[T], kind nodeKind, label string, ctor func(ctx context.Context, upstream Iterator[T]) (Iterator[U], error)) Stream[U] {
	return Stream[U]{
		n: s.n.child(kind, label),
		open: func(ctx context.Context) (Iterator[U], error) {
			up, err := s.open(ctx)
			if err != nil {
				return nil, err
			}
			return ctor(ctx, up)
		},
	}
}

// Open materializes the Stream into a fresh, single-pass Iterator. Calling
// Open more than once on the same Stream value produces independent
// iterators, each re-invoking the source factory.
func (s Stream[T]) Open(ctx context.Context) (Iterator[T], error) {
	return s.open(ctx)
}

// Exhaust iterates s to completion, returning the number of elements
// yielded and the first positional error encountered, if any — the Go
// analogue of the original implementation's `sum(1 for _ in self)`
// exhaustion helper (spec.md §6, SPEC_FULL.md §C.1).
func (s Stream[T]) Exhaust(ctx context.Context) (int, error) {
	it, err := s.Open(ctx)
	if err != nil {
		return 0, err
	}
	var (
		count    int
		firstErr error
	)
	for {
		_, err := it.Next(ctx)
		if err != nil {
			if err == Done {
				return count, firstErr
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}
}

// Slice fully materializes s, as per ToSlice.
func (s Stream[T]) Slice(ctx context.Context) ([]T, error) {
	it, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return ToSlice(ctx, it)
}
