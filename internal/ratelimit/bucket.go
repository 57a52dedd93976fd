// Package ratelimit adapts the teacher corpus's catrate sliding-window rate
// limiter down to the single rate, single category case needed by a Slow
// operator instance: "at most Limit events per Window". The multi-category
// sync.Map and multi-rate map[time.Duration]int bookkeeping of the original
// have no use here — a Slow operator owns exactly one Bucket for the
// lifetime of one materialized iterator — so this package keeps only the
// sliding-window ring-buffer algorithm itself.
package ratelimit

import (
	"time"

	"github.com/joeycumines/go-streamable/internal/clock"
)

// Bucket enforces "at most Limit events per Window", using a sliding
// window of observed event timestamps.
type Bucket struct {
	window time.Duration
	limit  int
	clock  clock.Clock
	events *ring
}

// NewBucket builds a Bucket. Panics if limit <= 0 or window <= 0.
func NewBucket(window time.Duration, limit int, c clock.Clock) *Bucket {
	if limit <= 0 || window <= 0 {
		panic(`ratelimit: limit and window must be positive`)
	}
	if c == nil {
		c = clock.Real
	}
	return &Bucket{window: window, limit: limit, clock: c, events: newRing(8)}
}

// nextAllowed trims expired events and, if the window is currently at
// capacity, returns the time at which the oldest counted event expires —
// the earliest moment a new event could be registered.
func (b *Bucket) nextAllowed(now time.Time) time.Time {
	boundary := now.Add(-b.window).UnixNano()
	b.events.RemoveBefore(b.events.Search(boundary + 1))

	if b.events.Len() < b.limit {
		return time.Time{}
	}
	oldest := b.events.Get(b.events.Len() - b.limit)
	return time.Unix(0, oldest).Add(b.window)
}

// Allow is a non-blocking attempt to register one event now. If it returns
// false, the returned time is the earliest moment a subsequent Allow call
// could succeed.
func (b *Bucket) Allow() (time.Time, bool) {
	now := b.clock.Now()
	if next := b.nextAllowed(now); !next.IsZero() && now.Before(next) {
		return next, false
	}
	b.events.Append(now.UnixNano())
	return time.Time{}, true
}

// ctxLike is satisfied by context.Context; kept minimal so this package
// doesn't need to import context just for a Done/Err pair.
type ctxLike interface {
	Done() <-chan struct{}
	Err() error
}

// Wait blocks until an event may be registered, then registers it. Returns
// ctx.Err() if ctx is cancelled first.
func (b *Bucket) Wait(ctx ctxLike) error {
	for {
		next, ok := b.Allow()
		if ok {
			return nil
		}
		d := next.Sub(b.clock.Now())
		if d <= 0 {
			continue
		}
		t := b.clock.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C():
		}
	}
}
