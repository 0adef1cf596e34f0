//go:build !linux

package reactor

import "golang.org/x/sys/unix"

// bootClockID falls back to CLOCK_MONOTONIC on platforms without a
// distinct suspend-including clock exposed through golang.org/x/sys/unix.
// BootNow degrades to behaving like Now on these platforms; documented
// in [BootNow].
const bootClockID = unix.CLOCK_MONOTONIC
