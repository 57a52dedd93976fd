package streamable

import (
	"errors"
	"fmt"
)

// Done is returned by Iterator.Next when the iterator is permanently
// exhausted. Once an Iterator returns Done it must keep returning Done
// on every subsequent call.
var Done = errors.New(`streamable: end of iteration`)

type (
	// ParameterError reports invalid configuration detected eagerly at
	// pipeline construction time (e.g. a negative count, a non-positive
	// interval, a zero concurrency).
	ParameterError struct {
		Op      string // the builder method or config type that rejected the value
		Message string
	}

	// SourceError reports a malformed source: a nil factory, or a
	// factory/sub-iterable that produced a nil Iterator.
	SourceError struct {
		Message string
		Cause   error
	}

	// UpstreamError wraps an exception captured from an upstream stage
	// and re-raised in-position by a downstream operator (concurrent
	// map/foreach, flatten) once outstanding work ahead of it has
	// drained.
	UpstreamError struct {
		Cause error
	}

	// UserFunctionError wraps a panic or error raised by a user-supplied
	// callable (map/foreach fn, filter/limit predicate, batch key fn),
	// preserving the original value for errors.Is/As.
	UserFunctionError struct {
		Op    string
		Cause error
	}

	// EndOfIterationLeak reports that a user-supplied callable signaled
	// Done from within an operator that is not itself a source. Honoring
	// it silently would truncate the pipeline at the wrong position, so
	// it is remapped to this error kind instead.
	EndOfIterationLeak struct {
		Op string
	}

	// CancelledError is the error kind for an internal shutdown signal.
	// No operator in this package returns it: worker goroutines unwind on
	// context cancellation, and cancellation reaches the consumer as
	// ctx.Err().
	CancelledError struct {
		Cause error
	}
)

func (e *ParameterError) Error() string {
	if e.Op == "" {
		return "streamable: parameter error: " + e.Message
	}
	return fmt.Sprintf("streamable: %s: parameter error: %s", e.Op, e.Message)
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return "streamable: source error: " + e.Message + ": " + e.Cause.Error()
	}
	return "streamable: source error: " + e.Message
}

func (e *SourceError) Unwrap() error { return e.Cause }

func (e *UpstreamError) Error() string {
	if e.Cause == nil {
		return "streamable: upstream error"
	}
	return "streamable: upstream error: " + e.Cause.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

func (e *UserFunctionError) Error() string {
	msg := "streamable: user function error"
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UserFunctionError) Unwrap() error { return e.Cause }

func (e *EndOfIterationLeak) Error() string {
	if e.Op == "" {
		return "streamable: end-of-iteration signal leaked from user callable"
	}
	return "streamable: end-of-iteration signal leaked from " + e.Op
}

func (e *CancelledError) Error() string {
	if e.Cause != nil {
		return "streamable: cancelled: " + e.Cause.Error()
	}
	return "streamable: cancelled"
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// wrapUserFunc normalizes the result of calling a user-supplied function:
// Done leaking out of fn is remapped to EndOfIterationLeak so it can never
// masquerade as upstream exhaustion, any other error is wrapped as
// UserFunctionError, and a recovered panic is treated the same way as an
// error return.
func wrapUserFunc(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, Done) {
		return &EndOfIterationLeak{Op: op}
	}
	var ufe *UserFunctionError
	if errors.As(err, &ufe) {
		return err
	}
	return &UserFunctionError{Op: op, Cause: err}
}

// recoverUserFunc runs fn and converts any panic into an error: a panic
// value that is an error goes through wrapUserFunc (so a panicked Done
// becomes *EndOfIterationLeak), and any other value becomes a
// *UserFunctionError carrying it, so that user callables (predicates, key functions, map/foreach
// functions) can misbehave without taking down the goroutine they ran on.
func recoverUserFunc(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = wrapUserFunc(op, e)
			} else {
				err = &UserFunctionError{Op: op, Cause: fmt.Errorf("%v", r)}
			}
		}
	}()
	fn()
	return nil
}

// wrapUpstream wraps a non-Done error observed from an upstream Iterator so
// it can be distinguished, downstream, from errors raised by the operator's
// own user-supplied callable.
func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Cause: err}
}
