// Package reactor implements the core of a single-threaded asynchronous
// I/O runtime: a reactor-driven event loop that multiplexes timers and
// readiness notifications for file descriptors, and drives
// stackless-coroutine-like tasks suspended on those events.
//
// # Components
//
// The package is built from three tightly coupled subsystems:
//
//   - [EventLoop], the central scheduler. It owns a timer heap, a
//     per-descriptor registration table, and drives ready tasks to
//     completion.
//   - [Selector], a thin abstraction over a kernel readiness mechanism
//     (edge-triggered epoll on Linux, level-triggered poll elsewhere).
//   - [Task] and [Future], the awaitable protocol: how a suspended
//     computation is constructed, suspended, resumed, chained as a
//     continuation, and finalized.
//
// # Ambient loop
//
// At most one [EventLoop] may exist per process at a time. Use [New] or
// [NewWithMaxFD] to construct one, [Current] or [TryCurrent] to access
// it, and the package-level free functions ([AwaitRead], [AwaitWrite],
// [SleepFor], [AddFD], [DelFD]) to operate on whichever loop is
// currently active without threading a loop pointer through call sites.
//
// # Non-goals
//
// This package does not implement higher-level stream or socket
// abstractions, TLS, DNS resolution, a CLI/demo driver, or thread-pool
// offload; those are external collaborators that submit schedulables,
// register descriptors, and await the loop's primitives.
package reactor
