//go:build linux

package reactor

import "golang.org/x/sys/unix"

// bootClockID is CLOCK_BOOTTIME on Linux: monotonic, but including time
// spent suspended.
const bootClockID = unix.CLOCK_BOOTTIME
