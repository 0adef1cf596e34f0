//go:build linux

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// epollSelector implements [Selector] on Linux using epoll in
// edge-triggered mode (EPOLLET).
type epollSelector struct {
	epfd     int
	count    int
	eventBuf []unix.EpollEvent
}

// newSelector constructs the platform selector backend.
func newSelector() (Selector, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, osErr("epoll_create1", err)
	}
	return &epollSelector{
		epfd:     epfd,
		eventBuf: make([]unix.EpollEvent, maxSelectorEvents),
	}, nil
}

func (s *epollSelector) Add(fd int, events SelectorEvents) error {
	// Edge-triggered mode only reports a transition to ready; a caller
	// that doesn't drain until EAGAIN on a blocking fd can stall the
	// loop on the next read/write, so fds go non-blocking on entry here.
	if err := unix.SetNonblock(fd, true); err != nil {
		return osErr("setnonblock", err)
	}

	ev := unix.EpollEvent{
		Events: selectorEventsToEpoll(events) | unix.EPOLLET,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return osErr("epoll_ctl(ADD)", err)
	}
	s.count++
	return nil
}

func (s *epollSelector) Del(fd int) error {
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return osErr("epoll_ctl(DEL)", err)
	}
	s.count--
	return nil
}

func (s *epollSelector) Wait(timeout Duration) ([]FdEvent, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.AsMillis())
		if ms < 0 {
			ms = 0
		}
	}

	n, err := unix.EpollWait(s.epfd, s.eventBuf, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, osErr("epoll_wait", err)
	}

	out := make([]FdEvent, n)
	for i := 0; i < n; i++ {
		raw := s.eventBuf[i].Events
		out[i] = FdEvent{
			Fd: int(s.eventBuf[i].Fd),
			Events: translateRawEvents(
				raw&unix.EPOLLIN != 0,
				raw&unix.EPOLLOUT != 0,
				raw&unix.EPOLLPRI != 0,
				raw&unix.EPOLLRDHUP != 0,
				raw&unix.EPOLLHUP != 0,
				raw&unix.EPOLLERR != 0,
			),
		}
	}
	return out, nil
}

func (s *epollSelector) Count() int { return s.count }

func (s *epollSelector) Close() error {
	return osErr("close", unix.Close(s.epfd))
}

// selectorEventsToEpoll maps the interest set derived from [FileOps]
// (via [opsToEvents]) onto the epoll bits to register for.
func selectorEventsToEpoll(events SelectorEvents) uint32 {
	var bits uint32
	if events.Has(EventInput) {
		bits |= unix.EPOLLIN | unix.EPOLLPRI | unix.EPOLLRDHUP
	}
	if events.Has(EventOutput) {
		bits |= unix.EPOLLOUT
	}
	return bits
}
