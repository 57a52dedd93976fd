package streamable

import "context"

// Filter yields each upstream element for which predicate(e) is true. If
// predicate panics, the panic is recovered and surfaced as a
// *UserFunctionError at the position of the offending element, which is
// not yielded (spec.md §4.1).
func (s Stream[T]) Filter(predicate func(T) bool) Stream[T] {
	if predicate == nil {
		panic(&ParameterError{Op: "Filter", Message: "predicate must not be nil"})
	}
	return downstream(s, nodeFilter, "Filter", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		return &filterIterator[T]{up: up, predicate: predicate}, nil
	})
}

type filterIterator[T any] struct {
	up        Iterator[T]
	predicate func(T) bool
}

func (it *filterIterator[T]) Next(ctx context.Context) (T, error) {
	for {
		v, err := it.up.Next(ctx)
		if err != nil {
			return v, err
		}

		var keep bool
		if err := recoverUserFunc("Filter", func() { keep = it.predicate(v) }); err != nil {
			var zero T
			return zero, err
		}
		if keep {
			return v, nil
		}
	}
}
