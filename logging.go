package streamable

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// LogEvent is the minimal fluent logging contract CORE needs: a handful
// of structured fields, an optional error, and a level-gated commit. It
// mirrors the subset of logiface.Builder[E]'s own API this package uses,
// so any concrete logiface backend can be adapted via WrapLogiface
// without CORE ever depending on a specific event type E.
type LogEvent interface {
	Str(key, val string) LogEvent
	Int(key string, val int) LogEvent
	Err(err error) LogEvent
	Enabled() bool
	Log(msg string)
}

// Logger is the structured-logging sink Observe logs through. A nil
// Logger is valid and silences logging entirely, the same way the
// teacher corpus's event-loop package nil-checks its own global logger
// before every call site.
type Logger interface {
	Info() LogEvent
	Warning() LogEvent
}

// WrapLogiface adapts a concrete logiface.Logger[E] — e.g. one built with
// github.com/joeycumines/izerolog's WithZerolog option — to Logger. E is
// inferred from l, so callers never need to name it explicitly.
func WrapLogiface[E logiface.Event](l *logiface.Logger[E]) Logger {
	return logifaceLogger[E]{l: l}
}

type logifaceLogger[E logiface.Event] struct{ l *logiface.Logger[E] }

func (w logifaceLogger[E]) Info() LogEvent    { return logifaceEvent[E]{b: w.l.Info()} }
func (w logifaceLogger[E]) Warning() LogEvent { return logifaceEvent[E]{b: w.l.Warning()} }

// logifaceEvent wraps a *logiface.Builder[E], which is nil-safe on every
// method already, so no extra nil-guarding is needed here.
type logifaceEvent[E logiface.Event] struct{ b *logiface.Builder[E] }

func (e logifaceEvent[E]) Str(key, val string) LogEvent { e.b.Str(key, val); return e }
func (e logifaceEvent[E]) Int(key string, val int) LogEvent {
	e.b.Int(key, val)
	return e
}
func (e logifaceEvent[E]) Err(err error) LogEvent { e.b.Err(err); return e }
func (e logifaceEvent[E]) Enabled() bool          { return e.b.Enabled() }
func (e logifaceEvent[E]) Log(msg string)         { e.b.Log(msg) }

var defaultLogger struct {
	sync.RWMutex
	logger Logger
}

// SetDefaultLogger installs the package-level default Logger used by
// Observe when an ObserveConfig doesn't set one explicitly. Passing nil
// restores silence.
func SetDefaultLogger(logger Logger) {
	defaultLogger.Lock()
	defer defaultLogger.Unlock()
	defaultLogger.logger = logger
}

func getDefaultLogger() Logger {
	defaultLogger.RLock()
	defer defaultLogger.RUnlock()
	return defaultLogger.logger
}

// logInfo logs msg at Info level via logger, applying the fields callback
// first. It is a no-op if logger is nil or Info-level logging is
// disabled.
func logInfo(logger Logger, fields func(e LogEvent) LogEvent, msg string) {
	if logger == nil {
		return
	}
	e := logger.Info()
	if e == nil || !e.Enabled() {
		return
	}
	if fields != nil {
		e = fields(e)
	}
	e.Log(msg)
}

// logWarning logs msg at Warning level via logger, applying the fields
// callback first. It is a no-op if logger is nil or Warning-level logging is
// disabled.
func logWarning(logger Logger, fields func(e LogEvent) LogEvent, msg string) {
	if logger == nil {
		return
	}
	e := logger.Warning()
	if e == nil || !e.Enabled() {
		return
	}
	if fields != nil {
		e = fields(e)
	}
	e.Log(msg)
}
