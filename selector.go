package reactor

// FdEvent pairs a file descriptor with the [SelectorEvents] the kernel
// reported ready for it, as returned by [Selector.Wait].
type FdEvent struct {
	Fd     int
	Events SelectorEvents
}

// maxSelectorEvents bounds how many events a single [Selector.Wait]
// call returns.
const maxSelectorEvents = 1024

// Selector wraps a kernel readiness facility. Callers are expected to
// drain I/O fully upon each notification — the Linux epoll backend
// delivers one edge transition per readiness change, not a level. The
// poll backend used elsewhere is level-triggered.
type Selector interface {
	// Add registers fd with the given interest set. Returns an
	// [OSError] on syscall failure.
	Add(fd int, events SelectorEvents) error
	// Del deregisters fd.
	Del(fd int) error
	// Wait blocks until at least one event is available or timeout
	// elapses, returning the ready (fd, events) pairs. A negative
	// timeout means wait indefinitely. Interrupt-by-signal returns (nil,
	// no error) — the caller reloops rather than treating EINTR as
	// failure.
	Wait(timeout Duration) ([]FdEvent, error)
	// Count returns the number of descriptors currently registered,
	// used by [EventLoop.Run] to decide whether I/O work remains.
	Count() int
	// Close releases the selector's kernel resources.
	Close() error
}

// translateRawEvents folds raw kernel event bits into [SelectorEvents]:
// an error bit surfaces as both input and output (so every waiter on
// the fd observes it and can report the error path); otherwise
// readable/priority/peer-closed-read folds to input, and
// writable/hangup folds to output.
func translateRawEvents(readable, writable, priority, peerClosedRead, hangup, errBit bool) SelectorEvents {
	if errBit {
		return EventInput | EventOutput
	}
	var e SelectorEvents
	if readable || priority || peerClosedRead {
		e |= EventInput
	}
	if writable || hangup {
		e |= EventOutput
	}
	return e
}
