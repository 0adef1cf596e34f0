//go:build !linux

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// pollSelector implements [Selector] on platforms without epoll, using
// unix.Poll. It is level-triggered rather than edge-triggered, but
// callers already honor the edge-triggered drain-until-EAGAIN contract,
// so a level-triggered backend is a correct, if chattier, substitute.
type pollSelector struct {
	fds []unix.PollFd
}

// newSelector constructs the platform selector backend.
func newSelector() (Selector, error) {
	return &pollSelector{}, nil
}

func (s *pollSelector) Add(fd int, events SelectorEvents) error {
	for _, pfd := range s.fds {
		if int(pfd.Fd) == fd {
			return osErr("poll(ADD)", ErrFdAlreadyRegistered)
		}
	}
	s.fds = append(s.fds, unix.PollFd{
		Fd:     int32(fd),
		Events: selectorEventsToPoll(events),
	})
	return nil
}

func (s *pollSelector) Del(fd int) error {
	for i, pfd := range s.fds {
		if int(pfd.Fd) == fd {
			s.fds = append(s.fds[:i], s.fds[i+1:]...)
			return nil
		}
	}
	return osErr("poll(DEL)", ErrFdNotRegistered)
}

func (s *pollSelector) Wait(timeout Duration) ([]FdEvent, error) {
	// unix.Poll with an empty slice still blocks for the timeout, which is
	// what we want when nothing is registered but a timer is pending.
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.AsMillis())
		if ms < 0 {
			ms = 0
		}
	}

	n, err := unix.Poll(s.fds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, osErr("poll", err)
	}

	out := make([]FdEvent, 0, n)
	for _, pfd := range s.fds {
		if pfd.Revents == 0 {
			continue
		}
		out = append(out, FdEvent{
			Fd: int(pfd.Fd),
			Events: translateRawEvents(
				pfd.Revents&unix.POLLIN != 0,
				pfd.Revents&unix.POLLOUT != 0,
				pfd.Revents&unix.POLLPRI != 0,
				false, // POLLRDHUP is a Linux extension; unavailable on this backend.
				pfd.Revents&unix.POLLHUP != 0,
				pfd.Revents&unix.POLLERR != 0,
			),
		})
	}
	return out, nil
}

func (s *pollSelector) Count() int { return len(s.fds) }

func (s *pollSelector) Close() error { return nil }

// selectorEventsToPoll maps an interest set onto the poll(2) event bits
// to watch for.
func selectorEventsToPoll(events SelectorEvents) int16 {
	var bits int16
	if events.Has(EventInput) {
		bits |= unix.POLLIN | unix.POLLPRI
	}
	if events.Has(EventOutput) {
		bits |= unix.POLLOUT
	}
	return bits
}
