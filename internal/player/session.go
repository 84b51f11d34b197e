// Package player drives one learner's pass through a course: the active
// module, sequential unlock checks, quiz attempts, and the auto-advance
// timer that moves the session forward after a pass.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eduforge/eduforge/internal/course"
	"github.com/eduforge/eduforge/internal/progress"
	"github.com/eduforge/eduforge/internal/quiz"
)

// ModuleAdvanceDelay is the pause after marking a non-quiz module complete
// before the session moves to the next module.
const ModuleAdvanceDelay = 1 * time.Second

var (
	// ErrModuleLocked is returned when the learner selects a module whose
	// predecessor has not been passed or completed.
	ErrModuleLocked = errors.New("player: module is locked")
	// ErrNoQuiz is returned when a quiz attempt is started on a module
	// without one.
	ErrNoQuiz = errors.New("player: module has no quiz")
	// ErrSessionClosed is returned for operations on a torn-down session.
	ErrSessionClosed = errors.New("player: session closed")
)

// Session is one learner's live view of one course.
type Session struct {
	mu       sync.Mutex
	progress *progress.Manager
	courseID string
	active   int
	engine   *quiz.Engine
	timer    *quiz.AdvanceTimer
	after    quiz.AfterFunc
	now      func() time.Time
	closed   bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithScheduler replaces the wall-clock scheduler backing both the quiz
// transition lock and the auto-advance timer, for tests.
func WithScheduler(after quiz.AfterFunc) SessionOption {
	return func(s *Session) { s.after = after }
}

// WithClock replaces the wall clock used to date quiz results.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession opens a course in the player, positioned at the first module.
func NewSession(mgr *progress.Manager, courseID string, opts ...SessionOption) (*Session, error) {
	if _, err := mgr.Course(courseID); err != nil {
		return nil, err
	}
	s := &Session{
		progress: mgr,
		courseID: courseID,
		after:    quiz.StdAfter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timer = quiz.NewAdvanceTimer(s.after)
	return s, nil
}

// ActiveModule returns the index and content of the module on screen.
func (s *Session) ActiveModule() (int, *course.Module, error) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	c, err := s.progress.Course(s.courseID)
	if err != nil {
		return 0, nil, err
	}
	if active >= len(c.Modules) {
		return 0, nil, fmt.Errorf("%w: %d of %d", course.ErrInvalidIndex, active, len(c.Modules))
	}
	return active, &c.Modules[active], nil
}

// SelectModule switches the session to module i after an unlock check. Any
// pending auto-advance and any in-flight quiz attempt are discarded.
func (s *Session) SelectModule(i int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	unlocked, err := s.isUnlocked(i)
	if err != nil {
		return err
	}
	if !unlocked {
		return fmt.Errorf("%w: module %d", ErrModuleLocked, i)
	}

	s.timer.Cancel()
	s.mu.Lock()
	s.active = i
	s.engine = nil
	s.mu.Unlock()
	slog.Debug("module selected", "course_id", s.courseID, "module", i)
	return nil
}

// StartQuiz begins an attempt on the active module's quiz. The returned
// engine accepts answers; the session observes the result, persists it, and
// arms the auto-advance on a pass.
func (s *Session) StartQuiz() (*quiz.Engine, error) {
	active, mod, err := s.ActiveModule()
	if err != nil {
		return nil, err
	}
	if !mod.HasQuiz() {
		return nil, fmt.Errorf("%w: %s", ErrNoQuiz, mod.ID)
	}

	moduleID, quizID := mod.ID, mod.Quiz.ID
	engine := quiz.New(mod.Quiz,
		quiz.WithScheduler(s.after),
		quiz.WithResultFunc(func(score int) {
			s.handleQuizResult(active, moduleID, quizID, score)
		}),
	)

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	return engine, nil
}

// handleQuizResult persists the attempt and, on a pass with a next module,
// arms the auto-advance. Arming replaces any previous schedule.
func (s *Session) handleQuizResult(moduleIndex int, moduleID, quizID string, score int) {
	passed := score >= course.PassThreshold
	result := course.QuizResult{
		QuizID: quizID,
		Score:  score,
		Date:   s.now().UTC().Format(time.RFC3339),
		Passed: passed,
	}
	if err := s.progress.RecordQuizResult(context.Background(), s.courseID, moduleID, result); err != nil {
		slog.Error("quiz result not recorded", "course_id", s.courseID, "module_id", moduleID, "error", err)
		return
	}
	if !passed {
		return
	}
	s.scheduleAdvance(moduleIndex+1, quiz.AutoAdvanceDelay)
}

// CompleteModule marks a non-quiz module complete and schedules the short
// advance to the next one. Quiz modules complete through their quiz.
func (s *Session) CompleteModule(ctx context.Context) error {
	active, mod, err := s.ActiveModule()
	if err != nil {
		return err
	}
	if mod.HasQuiz() {
		return fmt.Errorf("player: module %s completes through its quiz", mod.ID)
	}
	if err := s.progress.CompleteModule(ctx, s.courseID, mod.ID); err != nil {
		return err
	}
	s.scheduleAdvance(active+1, ModuleAdvanceDelay)
	return nil
}

// Advance moves to the next module immediately, cancelling any pending
// auto-advance first. The learner's explicit "continue" action.
func (s *Session) Advance() error {
	s.mu.Lock()
	next := s.active + 1
	s.mu.Unlock()
	return s.SelectModule(next)
}

// Close tears the session down. A pending auto-advance never fires after
// Close returns.
func (s *Session) Close() {
	s.timer.Cancel()
	s.mu.Lock()
	s.closed = true
	s.engine = nil
	s.mu.Unlock()
}

func (s *Session) scheduleAdvance(next int, d time.Duration) {
	c, err := s.progress.Course(s.courseID)
	if err != nil || next >= len(c.Modules) {
		return
	}
	s.timer.Arm(d, func() {
		if err := s.SelectModule(next); err != nil {
			slog.Warn("auto-advance skipped", "course_id", s.courseID, "module", next, "error", err)
		}
	})
}

func (s *Session) isUnlocked(i int) (bool, error) {
	c, err := s.progress.Course(s.courseID)
	if err != nil {
		return false, err
	}
	scores, completed, err := s.progress.UnlockState(s.courseID)
	if err != nil {
		return false, err
	}
	return course.IsUnlocked(c, i, scores, completed)
}
