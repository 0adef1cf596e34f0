package reactor

import (
	"context"
	"iter"
)

// tasker is an untyped view of a [Task], used internally so the loop can
// keep a stack of "currently running task" without depending on Task's
// type parameter.
type tasker interface {
	Futurer
	yield(ctx context.Context, fut Futurer) error
}

// currentTaskYield suspends the task currently running on the ambient
// loop until fut completes. [Future.Await] calls this rather than
// looking the loop up from ctx, because the loop pointer is ambient,
// not context-scoped.
func currentTaskYield(ctx context.Context, fut Futurer) error {
	loop, err := Current()
	if err != nil {
		return err
	}
	return loop.currentTask().yield(ctx, fut)
}

// Task drives a coroutine — realized via [iter.Pull] over a generator
// that yields whatever [Futurer] it's suspended on — intercepting each
// yielded Futurer and resuming the coroutine once it completes.
//
// A Task owns its coroutine's continuation directly; cancelling it or
// letting it go out of scope after it completes releases that state,
// the same way destroying a native coroutine frame would.
type Task[T any] struct {
	loop *EventLoop

	next         func() (Futurer, bool)
	stop         func()
	yielderField func(Futurer) bool
	ctx          context.Context
	cancel       context.CancelCauseFunc
	pendingFut   Futurer
	resultFut    *Future[T]
}

// Coroutine is a function spawnable as a [Task] via [SpawnTask].
type Coroutine[T any] func(ctx context.Context) (T, error)

// Void is the result type used for coroutines with no meaningful
// result.
type Void = struct{}

// SpawnTask starts coro as a new [Task], suspended until control
// returns to the loop for its first resume. It panics with
// [ErrBadEventLoopAccess] if no loop is ambient — SpawnTask requires an
// active ambient loop ([Current]).
func SpawnTask[T any](ctx context.Context, coro Coroutine[T]) *Task[T] {
	loop, err := Current()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	task := &Task[T]{
		loop:      loop,
		resultFut: NewFuture[T](),
		ctx:       ctx,
		cancel:    cancel,
	}

	// iter.Pull is the mechanism that lets a plain Go function behave
	// like a suspendable coroutine: each call to yield(fut) inside coro
	// blocks the generator goroutine-less, and next() resumes it from
	// where it left off. yield isn't available until the generator body
	// below actually runs (on the first call to next()), so it's stashed
	// into task.yielderField from inside the generator, not captured by
	// the enclosing closure.
	next, stop := iter.Pull(func(yield func(Futurer) bool) {
		task.yielderField = yield
		task.resultFut.SetResult(coro(ctx))
	})
	task.next = next
	task.stop = stop

	task.resultFut.AddDoneCallback(func(err error) {
		if task.pendingFut != nil {
			task.pendingFut.Cancel(nil)
		}
		task.cancel(err)
	})

	// Defer the first step to a scheduled callback rather than stepping
	// inline, so a caller that cancels the task immediately after
	// SpawnTask returns prevents it from ever running at all.
	task.loop.ScheduleFunc(func() {
		if task.resultFut.HasResult() {
			return
		}
		if cause := context.Cause(ctx); cause != nil {
			task.resultFut.Cancel(cause)
			return
		}
		task.step()
	}, 0)

	return task
}

func (t *Task[T]) step() (ok bool) {
	t.loop.withTask(t, func() {
		t.pendingFut, ok = t.next()
	})
	if !ok {
		t.pendingFut = nil
		t.stop()
		return false
	}
	if t.pendingFut != nil {
		t.pendingFut.AddDoneCallback(func(error) { t.step() })
	} else {
		// A nil Futurer is a plain yield-to-loop-for-one-tick signal.
		t.loop.ScheduleFunc(func() { t.step() }, 0)
	}
	return true
}

// yield is called by an awaited Futurer's Await to suspend the currently
// running task until fut completes: rather than growing the host stack,
// it hands fut to step() and returns control to the loop.
func (t *Task[T]) yield(childCtx context.Context, fut Futurer) error {
	if cause := context.Cause(t.ctx); cause != nil {
		t.resultFut.Cancel(cause)
		if fut != nil {
			fut.Cancel(cause)
		}
		return t.Err()
	}
	if err := childCtx.Err(); err != nil {
		if fut != nil {
			fut.Cancel(err)
		}
		return t.Err()
	}

	if !t.yielderField(fut) {
		t.resultFut.Cancel(nil)
		return t.Err()
	}

	if cause := context.Cause(t.ctx); cause != nil {
		t.resultFut.Cancel(cause)
		return t.Err()
	}
	if err := childCtx.Err(); err != nil {
		t.resultFut.Cancel(err)
		return t.Err()
	}
	return nil
}

// Cancel implements [Futurer].
func (t *Task[T]) Cancel(err error) { t.resultFut.Cancel(err) }

// HasResult implements [Futurer].
func (t *Task[T]) HasResult() bool { return t.resultFut.HasResult() }

// Err implements [Futurer].
func (t *Task[T]) Err() error { return t.resultFut.Err() }

// Result implements [Awaitable].
func (t *Task[T]) Result() (T, error) { return t.resultFut.Result() }

// Future implements [Awaitable].
func (t *Task[T]) Future() *Future[T] { return t.resultFut }

// Await implements [Awaitable]. Awaiting the zero [Task] value (one
// that was never assigned) returns [ErrBrokenPromise].
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	if t == nil || t.resultFut == nil {
		var zero T
		return zero, ErrBrokenPromise
	}
	return t.resultFut.Await(ctx)
}

// AddResultCallback implements [Awaitable].
func (t *Task[T]) AddResultCallback(callback func(T, error)) Awaitable[T] {
	t.resultFut.AddResultCallback(callback)
	return t
}

// AddDoneCallback implements [Futurer].
func (t *Task[T]) AddDoneCallback(callback func(error)) Futurer {
	t.resultFut.AddDoneCallback(callback)
	return t
}

// WhenReady returns a never-throwing awaitable observing this task's
// completion.
func (t *Task[T]) WhenReady() Awaitable[struct{}] {
	return WhenReady(t)
}
