package streamable

import "context"

// LimitConfig configures Stream.Limit. At least one of Count or When must
// be set; NewBatcher-style, the zero value is rejected at construction.
type LimitConfig[T any] struct {
	// Count, if > 0, caps the number of emitted elements.
	Count int
	// When, if set, is evaluated against every candidate element; the
	// triggering element is not emitted and iteration terminates
	// immediately afterwards.
	When func(T) bool
}

// Limit truncates s per config: after Config.Count elements have been
// emitted, or Config.When(e) is true for some candidate e (whichever
// happens first), the stream is permanently terminal. A panic from When
// propagates as a positional error without triggering termination
// (spec.md §4.1).
func (s Stream[T]) Limit(config LimitConfig[T]) Stream[T] {
	if config.Count <= 0 && config.When == nil {
		panic(&ParameterError{Op: "Limit", Message: "one of Count or When must be configured"})
	}
	return downstream(s, nodeLimit, "Limit", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		return &limitIterator[T]{up: up, config: config}, nil
	})
}

type limitIterator[T any] struct {
	up       Iterator[T]
	config   LimitConfig[T]
	emitted  int
	terminal bool
}

func (it *limitIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if it.terminal {
		return zero, Done
	}
	if it.config.Count > 0 && it.emitted >= it.config.Count {
		it.terminal = true
		return zero, Done
	}

	v, err := it.up.Next(ctx)
	if err != nil {
		return v, err
	}

	if it.config.When != nil {
		var stop bool
		if werr := recoverUserFunc("Limit", func() { stop = it.config.When(v) }); werr != nil {
			return zero, werr
		}
		if stop {
			it.terminal = true
			return zero, Done
		}
	}

	it.emitted++
	return v, nil
}
