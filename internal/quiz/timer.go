package quiz

import (
	"sync"
	"time"
)

// AutoAdvanceDelay is how long a passed quiz result is shown before the
// player moves to the next module, unless the learner continues explicitly.
const AutoAdvanceDelay = 5 * time.Second

// AdvanceTimer is the single-owner cancellable handle for the post-quiz
// auto-advance. Arming replaces any live timer rather than stacking a second
// one, and a cancelled callback never fires, even if the underlying timer
// already expired.
type AdvanceTimer struct {
	mu    sync.Mutex
	after AfterFunc
	timer Timer
	gen   uint64
}

// NewAdvanceTimer creates a timer scheduling on after. A nil after uses the
// runtime clock.
func NewAdvanceTimer(after AfterFunc) *AdvanceTimer {
	if after == nil {
		after = StdAfter
	}
	return &AdvanceTimer{after: after}
}

// Arm schedules fn after d, cancelling any previously armed callback.
func (t *AdvanceTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.after(d, func() {
		t.mu.Lock()
		live := t.gen == gen
		if live {
			t.timer = nil
		}
		t.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Cancel stops any pending callback. Safe to call when nothing is armed.
func (t *AdvanceTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Armed reports whether a callback is currently scheduled.
func (t *AdvanceTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
