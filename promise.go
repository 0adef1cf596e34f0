package reactor

import (
	"context"
	"errors"
)

// Futurer is an untyped view of an [Awaitable], useful for storing
// heterogeneous awaitables (e.g. in a waiter FIFO) in one container.
type Futurer interface {
	// HasResult reports whether this Futurer has completed, including
	// by cancellation.
	HasResult() bool
	// Err returns a non-nil error if this Futurer was cancelled or
	// completed exceptionally.
	Err() error
	// AddDoneCallback registers callback to run once this Futurer
	// completes. If it has already completed, callback runs immediately.
	AddDoneCallback(callback func(error)) Futurer
	// Cancel cancels this Futurer with err (defaulting to
	// context.Canceled). A no-op if already completed.
	Cancel(err error)
}

// Awaitable holds the eventual result of an operation that may complete
// later, and can be awaited to suspend the current task until it does.
// [Future] and [Task] both implement it.
type Awaitable[T any] interface {
	Futurer
	// Await suspends the current task until this Awaitable completes
	// and returns its result. Returns [ErrBrokenPromise] if this
	// Awaitable is the zero value of a [Task] (detached or moved-from).
	Await(ctx context.Context) (T, error)
	// AddResultCallback registers a type-aware completion callback.
	AddResultCallback(callback func(result T, err error)) Awaitable[T]
	// Result returns the stored result. If not yet complete, returns
	// ErrNotReady.
	Result() (T, error)
	// Future returns the underlying [Future]. Returns itself if this
	// Awaitable already is one.
	Future() *Future[T]
}

// ErrNotReady is returned by [Future.Result] before the Future has
// completed.
var ErrNotReady = errors.New("reactor: future is still pending")

// Future is a value container representing the result of a pending
// operation: empty until [Future.SetResult] or [Futurer.Cancel]
// populates it, after which every registered callback runs and the
// result is fixed.
//
// The tri-state {empty, value, exception} shape is the same whether the
// owner is a bare Future or a coroutine-driven [Task].
type Future[T any] struct {
	done      bool
	result    T
	err       error
	callbacks []func(T, error)
}

// NewFuture returns a pending [Future].
func NewFuture[T any]() *Future[T] {
	return &Future[T]{}
}

// HasResult implements [Futurer].
func (f *Future[T]) HasResult() bool { return f.done }

// Err implements [Futurer].
func (f *Future[T]) Err() error { return f.err }

// Result implements [Awaitable].
func (f *Future[T]) Result() (T, error) {
	if f.done {
		return f.result, f.err
	}
	var zero T
	return zero, ErrNotReady
}

// Future implements [Awaitable].
func (f *Future[T]) Future() *Future[T] { return f }

// AddDoneCallback implements [Futurer].
func (f *Future[T]) AddDoneCallback(callback func(error)) Futurer {
	f.AddResultCallback(func(_ T, err error) { callback(err) })
	return f
}

// AddResultCallback implements [Awaitable]. If the Future has already
// completed, callback runs immediately and synchronously.
func (f *Future[T]) AddResultCallback(callback func(T, error)) Awaitable[T] {
	if f.done {
		callback(f.result, f.err)
	} else {
		f.callbacks = append(f.callbacks, callback)
	}
	return f
}

// Await implements [Awaitable] by suspending the calling task on the
// event loop until SetResult or Cancel populates this Future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if err := currentTaskYield(ctx, f); err != nil {
		var zero T
		return zero, err
	}
	return f.Result()
}

// Cancel implements [Futurer]. A nil err is reported as context.Canceled.
func (f *Future[T]) Cancel(err error) {
	if err == nil {
		err = context.Canceled
	}
	var zero T
	f.SetResult(zero, err)
}

// SetResult populates the Future with a result, marking it complete and
// running every registered callback. A no-op if already complete — a
// Future settles exactly once.
func (f *Future[T]) SetResult(result T, err error) {
	if f.done {
		return
	}
	f.result, f.err = result, err
	f.done = true

	callbacks := f.callbacks
	f.callbacks = nil
	for _, cb := range callbacks {
		cb(result, err)
	}
}

// WhenReady returns an [Awaitable] that completes alongside f but never
// returns an error nor a value — it observes completion without forcing
// the caller to handle f's result type.
func WhenReady(f Futurer) Awaitable[struct{}] {
	fut := NewFuture[struct{}]()
	f.AddDoneCallback(func(error) {
		fut.SetResult(struct{}{}, nil)
	})
	return fut
}
