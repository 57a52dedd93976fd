// Package clock provides an injectable monotonic time source, so that the
// timing-sensitive operators (Slow, Batch's interval flush) can be
// tested deterministically. The shape mirrors the teacher package's own
// test seam (catrate's package-level timeNow/timeNewTicker variables),
// generalized into a small interface so each operator instance can be
// given its own clock instead of mutating shared package state.
package clock

import "time"

// Clock abstracts time.Now and time.NewTimer for testability.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer abstracts *time.Timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Real is the Clock backed by the actual wall/monotonic clock.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

type realTimer struct{ t *time.Timer }

func (r *realTimer) C() <-chan time.Time { return r.t.C }
func (r *realTimer) Stop() bool          { return r.t.Stop() }
