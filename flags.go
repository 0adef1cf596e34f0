package reactor

import "strings"

// FileOps is a bitset of capabilities requested when registering a file
// descriptor with the loop ([EventLoop.AddFD]): readable, writable, or
// both.
type FileOps uint8

const (
	// NoOps is the empty FileOps value.
	NoOps FileOps = 0
	// OpRead marks the descriptor as wanting readability notifications.
	OpRead FileOps = 1 << 0
	// OpWrite marks the descriptor as wanting writability notifications.
	OpWrite FileOps = 1 << 1
)

// Has reports whether every bit set in other is also set in f.
func (f FileOps) Has(other FileOps) bool { return f&other == other }

// Readable reports whether f requests readability.
func (f FileOps) Readable() bool { return f.Has(OpRead) }

// Writable reports whether f requests writability.
func (f FileOps) Writable() bool { return f.Has(OpWrite) }

func (f FileOps) String() string {
	var parts []string
	if f.Has(OpRead) {
		parts = append(parts, "read")
	}
	if f.Has(OpWrite) {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// SelectorEvents is a bitset over the two directions a [Selector]
// reports readiness for: input and output. It is the Selector-facing
// analogue of [FileOps]; [opsToEvents] translates a registered
// capability set into the interest set a [Selector] watches for.
type SelectorEvents uint8

const (
	// NoEvents is the empty SelectorEvents value.
	NoEvents SelectorEvents = 0
	// EventInput indicates the descriptor is readable (or hung up for
	// reading, or has priority data — the selector folds all three into
	// one bit).
	EventInput SelectorEvents = 1 << 0
	// EventOutput indicates the descriptor is writable (or hung up).
	EventOutput SelectorEvents = 1 << 1
)

// Has reports whether every bit set in other is also set in e.
func (e SelectorEvents) Has(other SelectorEvents) bool { return e&other == other }

func (e SelectorEvents) String() string {
	var parts []string
	if e.Has(EventInput) {
		parts = append(parts, "input")
	}
	if e.Has(EventOutput) {
		parts = append(parts, "output")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// opsToEvents maps the capability a caller registered ([FileOps]) to the
// interest set a [Selector] is told to watch for.
func opsToEvents(ops FileOps) SelectorEvents {
	var e SelectorEvents
	if ops.Has(OpRead) {
		e |= EventInput
	}
	if ops.Has(OpWrite) {
		e |= EventOutput
	}
	return e
}
