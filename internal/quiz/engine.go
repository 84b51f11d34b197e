// Package quiz evaluates a single quiz session: sequential question
// presentation, answer scoring, and pass/fail determination.
package quiz

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/eduforge/eduforge/internal/course"
)

const (
	// TransitionDelay is the input lock window after an answer is selected,
	// before the session advances or scores.
	TransitionDelay = 600 * time.Millisecond
)

var (
	// ErrLocked is returned when input arrives during the transition window.
	ErrLocked = errors.New("quiz: input locked during transition")
	// ErrFinished is returned when input arrives after the result is shown.
	ErrFinished = errors.New("quiz: attempt already finished")
	// ErrInvalidOption is returned for an option index outside the question.
	ErrInvalidOption = errors.New("quiz: option index out of range")
	// ErrNotFailed is returned when Retake is requested on a passed or
	// unfinished attempt.
	ErrNotFailed = errors.New("quiz: retake only offered after a failed attempt")
	// ErrEmptyQuiz is returned when answering a quiz with no questions.
	ErrEmptyQuiz = errors.New("quiz: quiz has no questions")
)

// Phase is the state of a quiz attempt.
type Phase int

const (
	PhasePresenting Phase = iota
	PhaseTransitioning
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseResult:
		return "result"
	default:
		return "unknown"
	}
}

// Engine drives one quiz attempt through its phases.
type Engine struct {
	mu sync.Mutex

	quiz          *course.Quiz
	phase         Phase
	questionIndex int
	answers       map[string]int
	score         int

	after    AfterFunc
	delay    time.Duration
	onResult func(score int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler replaces the wall-clock transition scheduler, for tests.
func WithScheduler(after AfterFunc) Option {
	return func(e *Engine) { e.after = after }
}

// WithTransitionDelay overrides the post-answer input lock duration.
func WithTransitionDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithResultFunc sets the callback invoked once per attempt on reaching the
// result phase. The caller owns persistence of the emitted score.
func WithResultFunc(fn func(score int)) Option {
	return func(e *Engine) { e.onResult = fn }
}

// New creates an engine presenting the first question of the quiz.
func New(q *course.Quiz, opts ...Option) *Engine {
	e := &Engine{
		quiz:    q,
		phase:   PhasePresenting,
		answers: make(map[string]int),
		after:   StdAfter,
		delay:   TransitionDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer records the selected option for the current question and enters the
// transition window. Further input is rejected until the window elapses.
func (e *Engine) Answer(option int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.phase {
	case PhaseTransitioning:
		return ErrLocked
	case PhaseResult:
		return ErrFinished
	}

	if e.quiz == nil || len(e.quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}

	q := e.quiz.Questions[e.questionIndex]
	if option < 0 || option >= len(q.Options) {
		return ErrInvalidOption
	}

	e.answers[q.ID] = option
	e.phase = PhaseTransitioning
	e.after(e.delay, e.advance)
	return nil
}

// advance ends the transition window: move to the next question, or score
// the attempt when the last question was just answered.
func (e *Engine) advance() {
	e.mu.Lock()

	if e.phase != PhaseTransitioning {
		e.mu.Unlock()
		return
	}

	if e.questionIndex < len(e.quiz.Questions)-1 {
		e.questionIndex++
		e.phase = PhasePresenting
		e.mu.Unlock()
		return
	}

	correct := 0
	for _, q := range e.quiz.Questions {
		if answer, ok := e.answers[q.ID]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}
	e.score = int(math.Round(100 * float64(correct) / float64(len(e.quiz.Questions))))
	e.phase = PhaseResult
	onResult := e.onResult
	score := e.score
	e.mu.Unlock()

	if onResult != nil {
		onResult(score)
	}
}

// Retake resets a failed attempt to the first question with cleared answers.
func (e *Engine) Retake() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseResult || e.score >= course.PassThreshold {
		return ErrNotFailed
	}

	e.phase = PhasePresenting
	e.questionIndex = 0
	e.answers = make(map[string]int)
	e.score = 0
	return nil
}

// Phase returns the current attempt phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// QuestionIndex returns the index of the question being presented.
func (e *Engine) QuestionIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questionIndex
}

// Score returns the attempt score. Only meaningful in the result phase.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Passed reports whether the finished attempt met the pass threshold.
func (e *Engine) Passed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase == PhaseResult && e.score >= course.PassThreshold
}
