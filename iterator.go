package streamable

import "context"

// Iterator is a single-pass, pull-based sequence of T. Next returns Done
// once the sequence is permanently exhausted; any other non-nil error is
// positional (raised "at" the element that would otherwise have occupied
// that slot) and does not necessarily terminate the sequence — a caller
// must keep calling Next to find out whether more elements follow.
//
// Implementations must return Done on every call once they have returned
// it once.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, error)
}

// IteratorFunc adapts a plain function to the Iterator interface.
type IteratorFunc[T any] func(ctx context.Context) (T, error)

func (f IteratorFunc[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// sliceIterator yields the elements of a slice in order, then Done.
type sliceIterator[T any] struct {
	items []T
	pos   int
}

func (it *sliceIterator[T]) Next(context.Context) (T, error) {
	var zero T
	if it.pos >= len(it.items) {
		return zero, Done
	}
	v := it.items[it.pos]
	it.pos++
	return v, nil
}

// FromSlice returns an Iterator over items. The slice is neither mutated
// nor copied, so callers should not mutate it concurrently with
// iteration.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

// emptyIterator always returns Done.
type emptyIterator[T any] struct{}

func (emptyIterator[T]) Next(context.Context) (T, error) {
	var zero T
	return zero, Done
}

// Empty returns an Iterator that yields no elements.
func Empty[T any]() Iterator[T] { return emptyIterator[T]{} }

// ToSlice exhausts it, collecting every yielded element, and returns the
// first positional error encountered (if any) alongside whatever elements
// were collected before it. Iteration continues past non-Done errors, as
// per the general propagation policy, so a single ToSlice call may observe
// more than one error; only the first is returned, matching Stream.Exhaust.
func ToSlice[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var (
		out      []T
		firstErr error
	)
	for {
		v, err := it.Next(ctx)
		if err != nil {
			if err == Done {
				return out, firstErr
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, v)
	}
}
