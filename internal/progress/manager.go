package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eduforge/eduforge/internal/course"
)

// Manager holds the authoritative local view of a user's courses: a
// write-through cache over the remote snapshot store. Local completion and
// quiz events are merged and applied optimistically, then persisted; a
// persistence failure is logged and never rolls local state back. Remote
// pushes replace local state wholesale, last-writer-wins.
type Manager struct {
	mu      sync.RWMutex
	userID  string
	store   Store
	events  EventLogger
	courses []course.Course
	snap    *Snapshot
	now     func() time.Time
}

// ManagerConfig holds dependencies for a progress manager.
type ManagerConfig struct {
	UserID string
	Store  Store
	Events EventLogger
	Now    func() time.Time
}

// NewManager creates a progress manager for one user session.
func NewManager(cfg ManagerConfig) *Manager {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		userID: cfg.UserID,
		store:  store,
		events: events,
		snap:   &Snapshot{},
		now:    now,
	}
}

// Load fetches the remote snapshot and reconciles the given course list
// against it, establishing the local view.
func (m *Manager) Load(ctx context.Context, courses []course.Course) error {
	snap, err := m.store.Get(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	m.mu.Lock()
	m.snap = snap
	m.courses = Restore(courses, snap)
	m.mu.Unlock()
	return nil
}

// Watch subscribes to remote snapshot pushes and reapplies Restore on each,
// replacing local state. Blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	ch, err := m.store.Subscribe(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("subscribe progress: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			m.mu.Lock()
			m.snap = &snap
			m.courses = Restore(m.courses, &snap)
			m.mu.Unlock()
			slog.Debug("progress snapshot applied", "user_id", m.userID, "courses", len(snap.Courses))
		}
	}
}

// Courses returns the current reconciled course list.
func (m *Manager) Courses() []course.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]course.Course, len(m.courses))
	copy(out, m.courses)
	return out
}

// Course returns the reconciled course with the given id.
func (m *Manager) Course(courseID string) (*course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.courses {
		if m.courses[i].ID == courseID {
			c := m.courses[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", course.ErrNotFound, courseID)
}

// CompleteModule records an explicit "mark complete" on a module without a
// quiz, applies the merge optimistically, and persists write-through.
func (m *Manager) CompleteModule(ctx context.Context, courseID, moduleID string) error {
	return m.apply(ctx, courseID, ModuleEvent{ModuleID: moduleID, Completed: true},
		Event{EventType: EventModuleCompleted, Data: map[string]any{"module_id": moduleID}})
}

// RecordQuizResult appends a quiz attempt; a passing attempt also marks the
// module completed. Attempts are append-only, and the best score is what
// the unlock rule consumes.
func (m *Manager) RecordQuizResult(ctx context.Context, courseID, moduleID string, result course.QuizResult) error {
	return m.apply(ctx, courseID, ModuleEvent{ModuleID: moduleID, Result: &result},
		Event{EventType: EventQuizCompleted, Data: map[string]any{
			"module_id": moduleID,
			"score":     result.Score,
			"passed":    result.Score >= course.PassThreshold,
		}})
}

func (m *Manager) apply(ctx context.Context, courseID string, ev ModuleEvent, logEv Event) error {
	m.mu.Lock()

	var target *course.Course
	for i := range m.courses {
		if m.courses[i].ID == courseID {
			target = &m.courses[i]
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", course.ErrNotFound, courseID)
	}
	if target.ModuleByID(ev.ModuleID) == nil {
		m.mu.Unlock()
		return fmt.Errorf("module not found: %s", ev.ModuleID)
	}

	entry := Merge(m.snap.CourseByID(courseID), target, []ModuleEvent{ev}, m.now())

	// Optimistic local apply before the remote write.
	m.snap.SetCourse(entry)
	*target = restoreCourse(*target, &entry)
	m.mu.Unlock()

	// Write-through: failure is logged, local state stands.
	if err := m.store.SetCourse(ctx, m.userID, entry); err != nil {
		slog.Error("progress persist failed", "user_id", m.userID, "course_id", courseID, "error", err)
	}

	logEv.UserID = m.userID
	logEv.CourseID = courseID
	if err := m.events.LogEvent(logEv); err != nil {
		slog.Warn("event log failed", "type", logEv.EventType, "error", err)
	}
	return nil
}

// UnlockState derives the per-index score and completion sets the unlock
// policy consumes, from the reconciled course state.
func (m *Manager) UnlockState(courseID string) (course.Scores, course.Completed, error) {
	c, err := m.Course(courseID)
	if err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	saved := m.snap.CourseByID(courseID)
	m.mu.RUnlock()

	scores := make(course.Scores)
	completed := make(course.Completed)
	for i := range c.Modules {
		if c.Modules[i].Completed {
			completed[i] = true
		}
		if saved != nil {
			if mp, ok := saved.Modules[c.Modules[i].ID]; ok && mp.Score > 0 {
				scores[i] = mp.Score
			}
		}
	}
	return scores, completed, nil
}
