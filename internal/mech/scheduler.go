package mech

import (
	"container/heap"
	"math"
)

// Scheduler runs delayed callbacks against a virtual clock.
// Time only moves when the frame driver calls Advance, so every callback runs on
// the caller's goroutine. It is not safe for concurrent use.
type Scheduler struct {
	now   float64
	seq   uint64
	queue timerQueue
}

// Timer is a handle to one scheduled callback.
type Timer struct {
	at    float64
	seq   uint64
	fn    func()
	index int // position in the heap, -1 once fired or cancelled
}

// NewScheduler creates a scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current virtual time in seconds.
func (s *Scheduler) Now() float64 { return s.now }

// After schedules fn to run once delay seconds from now.
// Negative and NaN delays are treated as zero.
func (s *Scheduler) After(delay float64, fn func()) *Timer {
	if !(delay > 0) || math.IsInf(delay, 0) {
		delay = 0
	}
	s.seq++
	t := &Timer{at: s.now + delay, seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// Cancel removes the timer from its scheduler. It reports whether the callback
// was still pending.
func (s *Scheduler) Cancel(t *Timer) bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&s.queue, t.index)
	t.index = -1
	return true
}

// Pending reports whether the timer has neither fired nor been cancelled.
func (t *Timer) Pending() bool { return t != nil && t.index >= 0 }

// Len returns the number of pending timers.
func (s *Scheduler) Len() int { return len(s.queue) }

// Advance moves the clock forward by dt seconds and fires every timer that
// becomes due, in due-time then schedule order. Timers scheduled by a callback
// also fire during this call when they fall inside the window.
func (s *Scheduler) Advance(dt float64) {
	if !(dt >= 0) || math.IsInf(dt, 0) {
		dt = 0
	}
	target := s.now + dt
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.at > target {
			break
		}
		heap.Pop(&s.queue)
		next.index = -1
		if next.at > s.now {
			s.now = next.at
		}
		if next.fn != nil {
			next.fn()
		}
	}
	s.now = target
}

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
