package quiz

import (
	"sync"
	"time"
)

// AfterFunc schedules fn to run after d. The returned Timer can stop a
// pending run. StdAfter delegates to the runtime timer; tests substitute a
// ManualScheduler so nothing waits on the wall clock.
type AfterFunc func(d time.Duration, fn func()) Timer

// Timer is a handle on a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the stop
	// happened before the callback ran.
	Stop() bool
}

// StdAfter schedules on the runtime clock via time.AfterFunc.
func StdAfter(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualScheduler is a fake clock scheduler for tests: callbacks only run
// when Fire is called.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After records the callback and returns its handle without running it.
func (s *ManualScheduler) After(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{fn: fn, delay: d}
	s.pending = append(s.pending, t)
	return t
}

// Fire runs all pending callbacks that have not been stopped.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, t := range pending {
		t.fire()
	}
}

// Pending returns the number of scheduled, unstopped callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped() {
			n++
		}
	}
	return n
}

type manualTimer struct {
	mu    sync.Mutex
	fn    func()
	delay time.Duration
	done  bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *manualTimer) fire() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	fn := t.fn
	t.mu.Unlock()
	fn()
}

func (t *manualTimer) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
