package quiz_test

import (
	"testing"

	"github.com/eduforge/eduforge/internal/quiz"
)

func TestAdvanceTimer_FiresWhenArmed(t *testing.T) {
	sched := quiz.NewManualScheduler()
	timer := quiz.NewAdvanceTimer(sched.After)

	fired := 0
	timer.Arm(quiz.AutoAdvanceDelay, func() { fired++ })
	if !timer.Armed() {
		t.Fatal("Armed() = false after Arm")
	}

	sched.Fire()
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
	if timer.Armed() {
		t.Error("Armed() = true after firing")
	}
}

func TestAdvanceTimer_CancelledTimerNeverFires(t *testing.T) {
	sched := quiz.NewManualScheduler()
	timer := quiz.NewAdvanceTimer(sched.After)

	fired := 0
	timer.Arm(quiz.AutoAdvanceDelay, func() { fired++ })
	timer.Cancel()

	sched.Fire()
	if fired != 0 {
		t.Errorf("cancelled callback fired %d times, want 0", fired)
	}
}

func TestAdvanceTimer_RearmReplacesNotStacks(t *testing.T) {
	sched := quiz.NewManualScheduler()
	timer := quiz.NewAdvanceTimer(sched.After)

	var order []string
	timer.Arm(quiz.AutoAdvanceDelay, func() { order = append(order, "first") })
	timer.Arm(quiz.AutoAdvanceDelay, func() { order = append(order, "second") })

	sched.Fire()
	if len(order) != 1 || order[0] != "second" {
		t.Errorf("fired callbacks = %v, want only the replacement", order)
	}
}

func TestAdvanceTimer_CancelWithoutArm(t *testing.T) {
	timer := quiz.NewAdvanceTimer(quiz.NewManualScheduler().After)
	timer.Cancel() // must not panic
	if timer.Armed() {
		t.Error("Armed() = true, want false")
	}
}
