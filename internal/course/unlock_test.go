package course_test

import (
	"errors"
	"testing"

	"github.com/eduforge/eduforge/internal/course"
)

func quizzedCourse() *course.Course {
	return &course.Course{
		ID:    "c1",
		Title: "Effective Onboarding",
		Modules: []course.Module{
			{ID: "m1", Title: "Basics", Quiz: &course.Quiz{
				ID:        "q1",
				Questions: []course.Question{{ID: "q1_1", Options: []string{"a", "b", "c", "d"}}},
			}},
			{ID: "m2", Title: "Practice"},
			{ID: "m3", Title: "Wrap-up"},
		},
	}
}

func TestIsUnlocked_FirstModuleAlwaysUnlocked(t *testing.T) {
	c := quizzedCourse()

	ok, err := course.IsUnlocked(c, 0, nil, nil)
	if err != nil {
		t.Fatalf("IsUnlocked() error = %v", err)
	}
	if !ok {
		t.Error("module 0 should always be unlocked")
	}
}

func TestIsUnlocked_QuizGate(t *testing.T) {
	c := quizzedCourse()

	tests := []struct {
		name   string
		scores course.Scores
		want   bool
	}{
		{"no score recorded", course.Scores{}, false},
		{"below threshold", course.Scores{0: 79}, false},
		{"exactly threshold", course.Scores{0: 80}, true},
		{"above threshold", course.Scores{0: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := course.IsUnlocked(c, 1, tt.scores, nil)
			if err != nil {
				t.Fatalf("IsUnlocked() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("IsUnlocked(1, scores=%v) = %v, want %v", tt.scores, ok, tt.want)
			}
		})
	}
}

func TestIsUnlocked_CompletionGate(t *testing.T) {
	c := quizzedCourse()

	// Module 2's predecessor (m2) has no quiz: gate is explicit completion.
	ok, err := course.IsUnlocked(c, 2, course.Scores{0: 100}, course.Completed{})
	if err != nil {
		t.Fatalf("IsUnlocked() error = %v", err)
	}
	if ok {
		t.Error("module 2 should stay locked until module 1 is marked complete")
	}

	ok, err = course.IsUnlocked(c, 2, course.Scores{0: 100}, course.Completed{1: true})
	if err != nil {
		t.Fatalf("IsUnlocked() error = %v", err)
	}
	if !ok {
		t.Error("module 2 should unlock once module 1 is marked complete")
	}
}

func TestIsUnlocked_InvalidIndex(t *testing.T) {
	c := quizzedCourse()

	for _, idx := range []int{-1, 3, 99} {
		_, err := course.IsUnlocked(c, idx, nil, nil)
		if !errors.Is(err, course.ErrInvalidIndex) {
			t.Errorf("IsUnlocked(%d) error = %v, want ErrInvalidIndex", idx, err)
		}
	}
}

func TestUnlockedSet(t *testing.T) {
	c := quizzedCourse()

	unlocked := course.UnlockedSet(c, course.Scores{0: 85}, course.Completed{1: true})

	want := map[int]bool{0: true, 1: true, 2: true}
	for i, w := range want {
		if unlocked[i] != w {
			t.Errorf("UnlockedSet()[%d] = %v, want %v", i, unlocked[i], w)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	c := quizzedCourse()
	if got := c.ProgressPercent(); got != 0 {
		t.Errorf("ProgressPercent() = %d, want 0", got)
	}

	c.Modules[0].Completed = true
	if got := c.ProgressPercent(); got != 33 {
		t.Errorf("ProgressPercent() = %d, want 33", got)
	}

	c.Modules[1].Completed = true
	c.Modules[2].Completed = true
	if got := c.ProgressPercent(); got != 100 {
		t.Errorf("ProgressPercent() = %d, want 100", got)
	}
}
