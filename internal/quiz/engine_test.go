package quiz_test

import (
	"errors"
	"testing"

	"github.com/eduforge/eduforge/internal/course"
	"github.com/eduforge/eduforge/internal/quiz"
)

// fiveQuestionQuiz builds a quiz where the correct answer is always option 0.
func fiveQuestionQuiz() *course.Quiz {
	q := &course.Quiz{ID: "q1", Title: "Quiz: Basics"}
	for i := 0; i < 5; i++ {
		q.Questions = append(q.Questions, course.Question{
			ID:            "q1_" + string(rune('1'+i)),
			Text:          "Question",
			Options:       []string{"right", "wrong", "wrong", "wrong"},
			CorrectAnswer: 0,
		})
	}
	return q
}

// runAttempt answers all five questions with the given options, firing the
// transition scheduler between answers.
func runAttempt(t *testing.T, e *quiz.Engine, sched *quiz.ManualScheduler, options [5]int) {
	t.Helper()
	for i, opt := range options {
		if err := e.Answer(opt); err != nil {
			t.Fatalf("Answer(question %d) error = %v", i, err)
		}
		sched.Fire()
	}
}

func TestEngine_FourOfFiveCorrectPasses(t *testing.T) {
	sched := quiz.NewManualScheduler()
	var emitted []int
	e := quiz.New(fiveQuestionQuiz(),
		quiz.WithScheduler(sched.After),
		quiz.WithResultFunc(func(score int) { emitted = append(emitted, score) }),
	)

	runAttempt(t, e, sched, [5]int{0, 0, 0, 0, 1})

	if e.Phase() != quiz.PhaseResult {
		t.Fatalf("Phase = %v, want result", e.Phase())
	}
	if e.Score() != 80 {
		t.Errorf("Score() = %d, want 80", e.Score())
	}
	if !e.Passed() {
		t.Error("Passed() = false, want true at exactly the threshold")
	}
	if len(emitted) != 1 || emitted[0] != 80 {
		t.Errorf("result callback emitted %v, want one call with 80", emitted)
	}
}

func TestEngine_ThreeOfFiveCorrectFails(t *testing.T) {
	sched := quiz.NewManualScheduler()
	e := quiz.New(fiveQuestionQuiz(), quiz.WithScheduler(sched.After))

	runAttempt(t, e, sched, [5]int{0, 0, 0, 1, 1})

	if e.Score() != 60 {
		t.Errorf("Score() = %d, want 60", e.Score())
	}
	if e.Passed() {
		t.Error("Passed() = true, want false")
	}
}

func TestEngine_EmptyQuizRejectsAnswer(t *testing.T) {
	e := quiz.New(&course.Quiz{ID: "q-empty", Title: "Quiz: Empty"})

	if err := e.Answer(0); !errors.Is(err, quiz.ErrEmptyQuiz) {
		t.Fatalf("Answer() error = %v, want ErrEmptyQuiz", err)
	}
	if e.Phase() != quiz.PhasePresenting {
		t.Errorf("Phase = %v, want presenting after rejected answer", e.Phase())
	}
}

func TestEngine_InputRejectedDuringTransition(t *testing.T) {
	sched := quiz.NewManualScheduler()
	e := quiz.New(fiveQuestionQuiz(), quiz.WithScheduler(sched.After))

	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if e.Phase() != quiz.PhaseTransitioning {
		t.Fatalf("Phase = %v, want transitioning", e.Phase())
	}

	if err := e.Answer(1); !errors.Is(err, quiz.ErrLocked) {
		t.Errorf("Answer() during transition error = %v, want ErrLocked", err)
	}

	sched.Fire()
	if e.QuestionIndex() != 1 {
		t.Errorf("QuestionIndex() = %d, want 1 after transition", e.QuestionIndex())
	}
	if e.Phase() != quiz.PhasePresenting {
		t.Errorf("Phase = %v, want presenting", e.Phase())
	}
}

func TestEngine_InputRejectedAfterResult(t *testing.T) {
	sched := quiz.NewManualScheduler()
	e := quiz.New(fiveQuestionQuiz(), quiz.WithScheduler(sched.After))

	runAttempt(t, e, sched, [5]int{0, 0, 0, 0, 0})

	if err := e.Answer(0); !errors.Is(err, quiz.ErrFinished) {
		t.Errorf("Answer() after result error = %v, want ErrFinished", err)
	}
}

func TestEngine_InvalidOption(t *testing.T) {
	e := quiz.New(fiveQuestionQuiz(), quiz.WithScheduler(quiz.NewManualScheduler().After))

	for _, opt := range []int{-1, 4} {
		if err := e.Answer(opt); !errors.Is(err, quiz.ErrInvalidOption) {
			t.Errorf("Answer(%d) error = %v, want ErrInvalidOption", opt, err)
		}
	}
}

func TestEngine_RetakeOnlyAfterFail(t *testing.T) {
	sched := quiz.NewManualScheduler()
	e := quiz.New(fiveQuestionQuiz(), quiz.WithScheduler(sched.After))

	// Retake before finishing is rejected.
	if err := e.Retake(); !errors.Is(err, quiz.ErrNotFailed) {
		t.Errorf("Retake() before result error = %v, want ErrNotFailed", err)
	}

	runAttempt(t, e, sched, [5]int{1, 1, 1, 1, 1})
	if e.Passed() {
		t.Fatal("attempt should have failed")
	}

	if err := e.Retake(); err != nil {
		t.Fatalf("Retake() error = %v", err)
	}
	if e.Phase() != quiz.PhasePresenting || e.QuestionIndex() != 0 {
		t.Errorf("after Retake: phase = %v index = %d, want presenting question 0", e.Phase(), e.QuestionIndex())
	}

	// Second attempt, all correct this time.
	runAttempt(t, e, sched, [5]int{0, 0, 0, 0, 0})
	if e.Score() != 100 {
		t.Errorf("Score() = %d, want 100 (answers cleared by retake)", e.Score())
	}

	if err := e.Retake(); !errors.Is(err, quiz.ErrNotFailed) {
		t.Errorf("Retake() after pass error = %v, want ErrNotFailed", err)
	}
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase    quiz.Phase
		expected string
	}{
		{quiz.PhasePresenting, "presenting"},
		{quiz.PhaseTransitioning, "transitioning"},
		{quiz.PhaseResult, "result"},
	}
	for _, tt := range tests {
		if tt.phase.String() != tt.expected {
			t.Errorf("Phase.String() = %q, want %q", tt.phase.String(), tt.expected)
		}
	}
}
