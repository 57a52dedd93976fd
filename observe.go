package streamable

import (
	"context"
)

// ObserveConfig configures Stream.Observe.
type ObserveConfig struct {
	// Label names the objects yielded, e.g. "rows", "requests". Defaults
	// to "elements" if empty.
	Label string
	// Logger receives the progress log lines. If nil, the package-level
	// default installed via SetDefaultLogger is used (which may itself be
	// nil, silencing Observe entirely).
	Logger Logger
}

// Observe passes elements through unchanged, logging progress on a
// logarithmic schedule: a log line is produced for the 1st element, the
// 2nd, the 4th, the 8th, ... and, if the final count is not itself a power
// of two, one final line on exhaustion (spec.md §4.1, §9).
func (s Stream[T]) Observe(config ObserveConfig) Stream[T] {
	label := config.Label
	if label == "" {
		label = "elements"
	}
	return downstream(s, nodeObserve, "Observe", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		logger := config.Logger
		if logger == nil {
			logger = getDefaultLogger()
		}
		return &observeIterator[T]{up: up, label: label, logger: logger, nextLog: 1}, nil
	})
}

type observeIterator[T any] struct {
	up      Iterator[T]
	label   string
	logger  Logger
	count   int
	nextLog int // next power-of-two count at which to log
}

func (it *observeIterator[T]) Next(ctx context.Context) (T, error) {
	v, err := it.up.Next(ctx)
	if err == nil {
		it.count++
		if it.count == it.nextLog {
			it.log("observed")
			it.nextLog *= 2
		}
		return v, nil
	}
	if err == Done {
		// the final power-of-two log already fired as part of the Next
		// call that reached it; otherwise, log once more on exhaustion.
		if !isPowerOfTwo(it.count) {
			it.log("exhausted")
		}
		return v, err
	}
	it.logError(err)
	return v, err
}

func (it *observeIterator[T]) log(what string) {
	logInfo(it.logger, func(e LogEvent) LogEvent {
		return e.Str("label", it.label).Int("count", it.count)
	}, it.label+": "+what)
}

// isPowerOfTwo reports whether n is a power of two; 0 is treated as "not a
// power of two" so an empty stream still produces one exhaustion log.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (it *observeIterator[T]) logError(err error) {
	logWarning(it.logger, func(e LogEvent) LogEvent {
		return e.Str("label", it.label).Int("count", it.count).Err(err)
	}, it.label+": error")
}
