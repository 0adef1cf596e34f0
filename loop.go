package reactor

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// defaultMaxFD is used when the process's hard descriptor limit can't be
// queried, or is reported as zero or above 1<<20 (which covers
// unlimited).
const defaultMaxFD = 1 << 16

// current is the process-wide ambient loop slot. It is written only at
// construction/destruction, from the loop's owning goroutine; reading
// it from any other goroutine is undefined — this package has no
// internal locking and assumes a single-threaded caller.
var current *EventLoop

// EventLoop is the central scheduler: a timer heap, a flat per-fd
// waiter table, and a readiness [Selector], all owned by a single
// goroutine with no internal locking.
type EventLoop struct {
	files    *fileTable
	timers   timerQueue
	selector Selector
	closed   bool

	taskStack []tasker
}

// New constructs an [EventLoop] sized to the process's hard
// RLIMIT_NOFILE, falling back to a fixed bound on platforms or
// configurations where that limit can't be read or is unlimited.
func New() (*EventLoop, error) {
	return NewWithMaxFD(queryMaxFD())
}

func queryMaxFD() int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return defaultMaxFD
	}
	if rlim.Max == 0 || rlim.Max > 1<<20 {
		return defaultMaxFD
	}
	return int(rlim.Max)
}

// NewWithMaxFD constructs an [EventLoop] whose per-fd table holds
// exactly maxFD slots, rejecting a zero bound with [ErrInvalidMaxFD].
// Fails with [ErrMultipleEventLoops] if a loop is already ambient in
// this process.
func NewWithMaxFD(maxFD int) (*EventLoop, error) {
	if maxFD <= 0 {
		return nil, ErrInvalidMaxFD
	}
	if current != nil {
		return nil, ErrMultipleEventLoops
	}

	sel, err := newSelector()
	if err != nil {
		return nil, err
	}

	loop := &EventLoop{
		files:    newFileTable(maxFD),
		selector: sel,
	}
	current = loop
	return loop, nil
}

// Current returns the ambient loop, or [ErrBadEventLoopAccess] if none
// is running in this process.
func Current() (*EventLoop, error) {
	if current == nil {
		return nil, ErrBadEventLoopAccess
	}
	return current, nil
}

// TryCurrent returns the ambient loop, or nil if none is running.
func TryCurrent() *EventLoop { return current }

// Exists reports whether an ambient loop is running.
func Exists() bool { return current != nil }

// Close clears the ambient slot and releases the selector. A closed
// loop must not be used again; a new [New] or [NewWithMaxFD] call may
// now succeed.
func (l *EventLoop) Close() error {
	if current == l {
		current = nil
	}
	l.closed = true
	return l.selector.Close()
}

// withTask pushes t as the currently-running task for the duration of
// fn, so [currentTaskYield] can find it. Tasks can nest (a task awaiting
// a sub-task steps the sub-task's own loop-driven resumption from
// within the parent's call frame in degenerate cases), hence a stack
// rather than a single field.
func (l *EventLoop) withTask(t tasker, fn func()) {
	l.taskStack = append(l.taskStack, t)
	defer func() { l.taskStack = l.taskStack[:len(l.taskStack)-1] }()
	fn()
}

func (l *EventLoop) currentTask() tasker {
	if len(l.taskStack) == 0 {
		return nil
	}
	return l.taskStack[len(l.taskStack)-1]
}

// ScheduleFunc schedules fn to run at [Now] + delay.
func (l *EventLoop) ScheduleFunc(fn func(), delay Duration) *ScheduledHandle {
	return l.timers.add(Now().Add(delay), fn)
}

// AwaitCallable is a zero-argument callable returning a [Futurer] —
// something that produces an awaitable when invoked, rather than
// already being one.
type AwaitCallable = func() Futurer

// ScheduleAwaitable schedules mk to run at [Now] + delay; once invoked,
// its returned [Futurer] is observed to completion and any error is
// routed to the diagnostic logger. This runs the trampoline as a plain
// completion callback on the returned Futurer rather than as its own
// coroutine, since nothing else needs to suspend on it.
func (l *EventLoop) ScheduleAwaitable(mk AwaitCallable, delay Duration) *ScheduledHandle {
	return l.ScheduleFunc(func() {
		fut := mk()
		fut.AddDoneCallback(func(err error) {
			if err != nil {
				diagnosticLogger.Warn("detached task failed", "error", err)
			}
		})
	}, delay)
}

// Schedule dispatches x to [EventLoop.ScheduleFunc] or
// [EventLoop.ScheduleAwaitable] depending on its runtime shape: a plain
// function, an [AwaitCallable], or a [Futurer] directly.
func Schedule[T any](loop *EventLoop, x T, delay Duration) (*ScheduledHandle, error) {
	switch v := any(x).(type) {
	case func():
		return loop.ScheduleFunc(v, delay), nil
	case AwaitCallable:
		return loop.ScheduleAwaitable(v, delay), nil
	case Futurer:
		return loop.ScheduleAwaitable(func() Futurer { return v }, delay), nil
	default:
		return nil, fmt.Errorf("reactor: %T is neither a plain function nor awaitable", x)
	}
}

// AddFD registers fd with the loop and the selector for the capability
// set ops.
func (l *EventLoop) AddFD(fd int, ops FileOps) error {
	if l.closed {
		return ErrBadSelectorAccess
	}
	if _, err := l.files.add(fd, ops); err != nil {
		return err
	}
	if err := l.selector.Add(fd, opsToEvents(ops)); err != nil {
		_ = l.files.del(fd)
		return err
	}
	return nil
}

// DelFD deregisters fd. Queued waiters are not woken.
func (l *EventLoop) DelFD(fd int) error {
	if l.closed {
		return ErrBadSelectorAccess
	}
	if err := l.files.del(fd); err != nil {
		return err
	}
	return l.selector.Del(fd)
}

// failedAwait returns an already-failed [Awaitable] carrying err, for
// validation failures caught synchronously in AwaitRead/AwaitWrite
// before the caller ever actually suspends.
func failedAwait(err error) Awaitable[struct{}] {
	fut := NewFuture[struct{}]()
	fut.SetResult(struct{}{}, err)
	return fut
}

// AwaitRead returns an awaitable that resumes once fd is readable.
func (l *EventLoop) AwaitRead(fd int) Awaitable[struct{}] {
	fut, err := l.files.addReader(fd)
	if err != nil {
		return failedAwait(err)
	}
	return fut
}

// AwaitWrite returns an awaitable that resumes once fd is writable.
func (l *EventLoop) AwaitWrite(fd int) Awaitable[struct{}] {
	fut, err := l.files.addWriter(fd)
	if err != nil {
		return failedAwait(err)
	}
	return fut
}

// SleepFor returns an awaitable that resumes after delay has elapsed.
func (l *EventLoop) SleepFor(delay Duration) Awaitable[struct{}] {
	fut := NewFuture[struct{}]()
	handle := l.timers.add(Now().Add(delay), func() {
		fut.SetResult(struct{}{}, nil)
	})
	fut.AddDoneCallback(func(error) { handle.Cancel() })
	return fut
}

// Run drives the loop until no pending work remains: the timer heap is
// empty and the selector has zero registrations.
func (l *EventLoop) Run() error {
	for {
		if l.timers.empty() && l.selector.Count() == 0 {
			return nil
		}

		timeout := Duration(-1)
		if !l.timers.empty() {
			timeout = l.timers.peek().when.Sub(Now())
			if timeout < 0 {
				timeout = 0
			}
		}

		events, err := l.selector.Wait(timeout)
		if err != nil {
			return err
		}

		// Snapshot each event's fd generation before running due timers:
		// a timer callback may DelFD/AddFD the same integer between now
		// and when we get to handling events below, in which case the
		// event belongs to a descriptor that no longer exists.
		generations := make([]uint64, len(events))
		for i, ev := range events {
			if err := l.files.checkRange(ev.Fd); err == nil {
				generations[i] = l.files.slots[ev.Fd].generation
			}
		}

		// Due timers run before I/O wakes in every iteration, so timers
		// that came due during the wait are never starved by a steady
		// stream of readiness events.
		l.timers.runDue(Now())

		for i, ev := range events {
			if err := l.files.checkRange(ev.Fd); err != nil {
				continue
			}
			f := &l.files.slots[ev.Fd]
			if !f.valid || f.generation != generations[i] {
				continue
			}
			f.wake(ev.Events)
		}
	}
}

// diagnosticLogger receives errors escaping detached tasks scheduled
// via [EventLoop.ScheduleAwaitable], since there is no caller left to
// hand them to.
var diagnosticLogger = slog.Default()

// SetDiagnosticLogger overrides the logger used for detached-task
// failures.
func SetDiagnosticLogger(logger *slog.Logger) {
	diagnosticLogger = logger
}

// AwaitRead mirrors [EventLoop.AwaitRead] against the ambient loop.
func AwaitRead(fd int) Awaitable[struct{}] { return mustCurrent().AwaitRead(fd) }

// AwaitWrite mirrors [EventLoop.AwaitWrite] against the ambient loop.
func AwaitWrite(fd int) Awaitable[struct{}] { return mustCurrent().AwaitWrite(fd) }

// SleepFor mirrors [EventLoop.SleepFor] against the ambient loop.
func SleepFor(delay Duration) Awaitable[struct{}] { return mustCurrent().SleepFor(delay) }

// AddFD mirrors [EventLoop.AddFD] against the ambient loop.
func AddFD(fd int, ops FileOps) error { return mustCurrent().AddFD(fd, ops) }

// DelFD mirrors [EventLoop.DelFD] against the ambient loop.
func DelFD(fd int) error { return mustCurrent().DelFD(fd) }

// ScheduleFunc mirrors [EventLoop.ScheduleFunc] against the ambient loop.
func ScheduleFunc(fn func(), delay Duration) *ScheduledHandle {
	return mustCurrent().ScheduleFunc(fn, delay)
}

// ScheduleAwaitable mirrors [EventLoop.ScheduleAwaitable] against the
// ambient loop.
func ScheduleAwaitable(mk AwaitCallable, delay Duration) *ScheduledHandle {
	return mustCurrent().ScheduleAwaitable(mk, delay)
}

// mustCurrent looks up the ambient loop, panicking with
// [ErrBadEventLoopAccess] if none exists — the free functions are thin
// conveniences over [Current] for code that already knows a loop is
// running.
func mustCurrent() *EventLoop {
	loop, err := Current()
	if err != nil {
		panic(err)
	}
	return loop
}
