package reactor

// fileInternal is the per-fd record: the registered capability set, a
// validity flag, and one FIFO of waiters per direction. generation
// guards against delivering a stale readiness event to an fd slot that
// has since been unregistered and re-registered with a different
// descriptor inside the same run loop iteration.
type fileInternal struct {
	fd          int
	ops         FileOps
	valid       bool
	constructed bool
	generation  uint64

	reading []*Future[struct{}]
	writing []*Future[struct{}]
}

// fileTable is the flat, fd-indexed array of per-fd state: a slice
// sized to the loop's max-fd bound, with lazy per-slot construction.
// Go's zero-initialized slice already gives every slot a valid,
// not-yet-constructed zero value, so no separate allocation step is
// needed before a slot's first use.
type fileTable struct {
	slots []fileInternal
}

func newFileTable(maxFD int) *fileTable {
	return &fileTable{slots: make([]fileInternal, maxFD)}
}

func (t *fileTable) checkRange(fd int) error {
	if fd < 0 || fd >= len(t.slots) {
		return ErrOutOfRangeFd
	}
	return nil
}

// add registers fd with ops, lazily constructing its slot and bumping
// its generation. Fails if fd is out of range or already registered.
func (t *fileTable) add(fd int, ops FileOps) (*fileInternal, error) {
	if err := t.checkRange(fd); err != nil {
		return nil, err
	}
	f := &t.slots[fd]
	if f.valid {
		return nil, ErrFdAlreadyRegistered
	}
	f.fd = fd
	f.ops = ops
	f.valid = true
	f.constructed = true
	f.generation++
	f.reading = nil
	f.writing = nil
	return f, nil
}

// del deregisters fd. Queued waiters are not woken, so they remain
// suspended until their task is cancelled with [Task.Cancel];
// cancelling a context alone does not wake them.
func (t *fileTable) del(fd int) error {
	if err := t.checkRange(fd); err != nil {
		return err
	}
	f := &t.slots[fd]
	if !f.valid {
		return ErrFdNotRegistered
	}
	f.valid = false
	return nil
}

// lookup returns the slot for fd, validated as currently registered.
func (t *fileTable) lookup(fd int) (*fileInternal, error) {
	if err := t.checkRange(fd); err != nil {
		return nil, err
	}
	f := &t.slots[fd]
	if !f.valid {
		return nil, ErrFdNotRegistered
	}
	return f, nil
}

// addReader validates fd is registered for reading and enqueues a new
// pending [Future] onto its reading FIFO.
func (t *fileTable) addReader(fd int) (*Future[struct{}], error) {
	f, err := t.lookup(fd)
	if err != nil {
		return nil, err
	}
	if !f.ops.Readable() {
		return nil, ErrFdNotReadable
	}
	fut := NewFuture[struct{}]()
	f.reading = append(f.reading, fut)
	return fut, nil
}

// addWriter is the write-direction analogue of addReader.
func (t *fileTable) addWriter(fd int) (*Future[struct{}], error) {
	f, err := t.lookup(fd)
	if err != nil {
		return nil, err
	}
	if !f.ops.Writable() {
		return nil, ErrFdNotWritable
	}
	fut := NewFuture[struct{}]()
	f.writing = append(f.writing, fut)
	return fut, nil
}

// wake resolves every currently queued waiter for the directions set in
// events, taking a snapshot first: a waiter that re-suspends on the
// same fd during its own resume is not woken again within this call.
func (f *fileInternal) wake(events SelectorEvents) {
	if events.Has(EventInput) && len(f.reading) > 0 {
		waiters := f.reading
		f.reading = nil
		for _, w := range waiters {
			w.SetResult(struct{}{}, nil)
		}
	}
	if events.Has(EventOutput) && len(f.writing) > 0 {
		waiters := f.writing
		f.writing = nil
		for _, w := range waiters {
			w.SetResult(struct{}{}, nil)
		}
	}
}
