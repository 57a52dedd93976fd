package streamable

import "context"

// CatchConfig configures Stream.Catch.
type CatchConfig[T any] struct {
	// When filters which upstream errors are absorbed; nil means "catch
	// everything", matching the original implementation's
	// `predicate: Callable[[Exception], Any] = bool` default.
	When func(error) bool
	// Replacement, if HasReplacement, is yielded in place of an absorbed
	// error instead of skipping the element entirely.
	Replacement T
	// HasReplacement distinguishes "no replacement configured" from "the
	// zero value is the replacement".
	HasReplacement bool
	// FinallyRaise defers the first absorbed error until upstream
	// exhaustion, then raises it exactly once.
	FinallyRaise bool
}

// Catch absorbs upstream errors matching config.When: the offending
// element is skipped, or config.Replacement is yielded in its place. Errors
// not matching config.When propagate unchanged. If config.FinallyRaise is
// set, the first absorbed error is stored and re-raised exactly once after
// upstream exhaustion, after which the iterator signals Done permanently
// (spec.md §4.1).
func (s Stream[T]) Catch(config CatchConfig[T]) Stream[T] {
	when := config.When
	if when == nil {
		when = func(error) bool { return true }
	}
	return downstream(s, nodeCatch, "Catch", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		return &catchIterator[T]{up: up, config: config, when: when}, nil
	})
}

type catchIterator[T any] struct {
	up          Iterator[T]
	config      CatchConfig[T]
	when        func(error) bool
	firstCaught error
	raised      bool
	exhausted   bool
}

func (it *catchIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if it.raised {
		return zero, Done
	}

	for {
		v, err := it.up.Next(ctx)
		if err == nil {
			return v, nil
		}
		if err == Done {
			it.exhausted = true
			if it.config.FinallyRaise && it.firstCaught != nil {
				it.raised = true
				return zero, it.firstCaught
			}
			return zero, Done
		}

		if !it.when(err) {
			return zero, err
		}

		if it.config.FinallyRaise && it.firstCaught == nil {
			it.firstCaught = err
		}
		if it.config.HasReplacement {
			return it.config.Replacement, nil
		}
		// absorbed, no replacement: skip this element and keep pulling.
	}
}
