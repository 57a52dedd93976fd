package streamable

import (
	"context"
	"time"

	"github.com/joeycumines/go-streamable/internal/clock"
	"github.com/joeycumines/go-streamable/internal/ratelimit"
)

// SlowConfig configures Stream.Slow. At least one of PerSecond or Interval
// must be set.
type SlowConfig struct {
	// PerSecond, if > 0, caps yields to at most that many per any
	// 1-second sliding window, measured at yield boundaries.
	PerSecond int
	// Interval, if > 0, imposes a minimum gap between consecutive
	// yields, measured from the previous yield's monotonic instant. No
	// burst catch-up: if upstream was already slower than Interval, no
	// sleep is performed.
	Interval time.Duration

	// clock overrides the time source used to schedule sleeps; nil uses
	// the real clock. Unexported: only this package's own tests can set
	// it, for deterministic timing.
	clock clock.Clock
}

// Slow throttles s per config. When both PerSecond and Interval are set,
// the more restrictive applies (spec.md §4, "Slow / Throttle").
func (s Stream[T]) Slow(config SlowConfig) Stream[T] {
	if config.PerSecond <= 0 && config.Interval <= 0 {
		panic(&ParameterError{Op: "Slow", Message: "one of PerSecond or Interval must be configured"})
	}
	c := config.clock
	if c == nil {
		c = clock.Real
	}
	return downstream(s, nodeSlow, "Slow", func(ctx context.Context, up Iterator[T]) (Iterator[T], error) {
		var bucket *ratelimit.Bucket
		if config.PerSecond > 0 {
			bucket = ratelimit.NewBucket(time.Second, config.PerSecond, c)
		}
		return &slowIterator[T]{up: up, interval: config.Interval, clock: c, bucket: bucket}, nil
	})
}

type slowIterator[T any] struct {
	up         Iterator[T]
	interval   time.Duration
	clock      clock.Clock
	bucket     *ratelimit.Bucket
	lastYield  time.Time
	hasYielded bool
}

func (it *slowIterator[T]) Next(ctx context.Context) (T, error) {
	v, err := it.up.Next(ctx)
	if err != nil {
		return v, err
	}

	if it.interval > 0 && it.hasYielded {
		if d := it.lastYield.Add(it.interval).Sub(it.clock.Now()); d > 0 {
			if err := sleepCtx(ctx, it.clock, d); err != nil {
				var zero T
				return zero, err
			}
		}
	}
	if it.bucket != nil {
		if err := it.bucket.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}

	it.lastYield = it.clock.Now()
	it.hasYielded = true
	return v, nil
}

// sleepCtx blocks for d, or until ctx is cancelled, using c as the time
// source so tests can drive it with a fake clock.
func sleepCtx(ctx context.Context, c clock.Clock, d time.Duration) error {
	t := c.NewTimer(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
