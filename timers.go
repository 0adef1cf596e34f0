package reactor

import "container/heap"

// ScheduledHandle is a handle to a function scheduled to run at an
// absolute deadline. A resumed coroutine is itself just a closure that
// calls back into [Task.step], so a plain function pointer and a
// coroutine resume both fit the same run field without needing separate
// cases.
//
// Once popped from the heap and run, a handle is discarded: run()
// executes exactly once.
type ScheduledHandle struct {
	run  func()
	when Instant

	queue *timerQueue
	index int
}

// Cancel removes this handle from its queue, preventing it from running.
// Returns false if the handle already ran or was never scheduled.
func (h *ScheduledHandle) Cancel() bool {
	if h.queue == nil {
		return false
	}
	return h.queue.remove(h)
}

// timerQueue is a min-heap of [ScheduledHandle] ordered by deadline
// ascending.
type timerQueue []*ScheduledHandle

func (q timerQueue) Len() int           { return len(q) }
func (q timerQueue) Less(i, j int) bool { return q[i].when.Before(q[j].when) }
func (q timerQueue) Swap(i, j int) {
	q[i].index, q[j].index = j, i
	q[i], q[j] = q[j], q[i]
}

func (q *timerQueue) Push(x any) {
	h := x.(*ScheduledHandle)
	h.index = q.Len()
	h.queue = q
	*q = append(*q, h)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	h := old[n-1]
	*q = old[:n-1]
	h.index = -1
	h.queue = nil
	return h
}

func (q *timerQueue) add(when Instant, run func()) *ScheduledHandle {
	h := &ScheduledHandle{run: run, when: when}
	heap.Push(q, h)
	return h
}

func (q *timerQueue) remove(h *ScheduledHandle) bool {
	if h.queue == nil || h.queue != q || h.index < 0 {
		return false
	}
	heap.Remove(q, h.index)
	return true
}

func (q *timerQueue) empty() bool { return q.Len() == 0 }

func (q *timerQueue) peek() *ScheduledHandle { return (*q)[0] }

// runDue pops and runs every handle whose deadline is <= now, in
// deadline order.
func (q *timerQueue) runDue(now Instant) {
	for !q.empty() && !now.Before(q.peek().when) {
		h := heap.Pop(q).(*ScheduledHandle)
		h.run()
	}
}
