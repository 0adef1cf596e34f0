package reactor

import (
	"errors"
	"fmt"
)

// Programmer-error sentinels: these are raised synchronously at the
// offending call, either as a returned error or, for
// [EventLoop.AwaitRead]/[EventLoop.AwaitWrite], as an Awaitable that has
// already failed by the time it is returned.
var (
	// ErrOutOfRangeFd is returned by [EventLoop.AddFD] when fd is
	// negative or >= the loop's configured max-fd bound.
	ErrOutOfRangeFd = errors.New("reactor: file descriptor out of range")
	// ErrFdAlreadyRegistered is returned by [EventLoop.AddFD] when fd is
	// already registered.
	ErrFdAlreadyRegistered = errors.New("reactor: file descriptor already registered")
	// ErrFdNotRegistered is returned by [EventLoop.DelFD] and by
	// [EventLoop.AwaitRead]/[EventLoop.AwaitWrite] when fd is not
	// currently registered (never added, or already removed).
	ErrFdNotRegistered = errors.New("reactor: file descriptor not registered")
	// ErrFdNotReadable is returned by [EventLoop.AwaitRead] when fd was
	// registered without [OpRead].
	ErrFdNotReadable = errors.New("reactor: file descriptor not registered for reading")
	// ErrFdNotWritable is returned by [EventLoop.AwaitWrite] when fd was
	// registered without [OpWrite].
	ErrFdNotWritable = errors.New("reactor: file descriptor not registered for writing")

	// ErrBadEventLoopAccess is returned by [Current] when no loop is
	// active in this process.
	ErrBadEventLoopAccess = errors.New("reactor: no event loop is currently running")
	// ErrMultipleEventLoops is returned by [New] and [NewWithMaxFD] when
	// a loop already occupies the process-wide ambient slot.
	ErrMultipleEventLoops = errors.New("reactor: an event loop is already running")
	// ErrBadSelectorAccess is returned when a selector operation is
	// attempted against a loop whose selector has already been closed.
	ErrBadSelectorAccess = errors.New("reactor: selector is not available")
	// ErrInvalidMaxFD is returned by [NewWithMaxFD] for a zero bound.
	ErrInvalidMaxFD = errors.New("reactor: max fd must be positive")

	// ErrBrokenPromise is returned when awaiting an empty task: one that
	// was moved from, detached, or is the zero [Task] value.
	ErrBrokenPromise = errors.New("reactor: broken promise")
)

// OSError wraps an error from a selector operation, tagging it with the
// site so callers can diagnose where in the selector it originated. On
// the epoll backend the wrapped error is the syscall's; the poll backend
// also uses it to wrap [ErrFdAlreadyRegistered] and [ErrFdNotRegistered]. It unwraps to the underlying error, so errors.Is against
// e.g. syscall.EAGAIN still works.
type OSError struct {
	Site string
	Err  error
}

func (e *OSError) Error() string {
	return fmt.Sprintf("reactor: %s: %v", e.Site, e.Err)
}

func (e *OSError) Unwrap() error { return e.Err }

// osErr wraps err with its syscall site, or returns nil if err is nil —
// convenient at call sites that don't want a nil-check before wrapping.
func osErr(site string, err error) error {
	if err == nil {
		return nil
	}
	return &OSError{Site: site, Err: err}
}
