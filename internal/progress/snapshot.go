// Package progress owns the per-user progress document: the remote snapshot
// is the source of truth on reload, local state is a write-through cache
// reconciled against it.
package progress

import (
	"github.com/eduforge/eduforge/internal/course"
)

// Snapshot is the remotely persisted progress document for one user,
// covering all their courses.
type Snapshot struct {
	Courses     []CourseProgress `json:"courses"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
}

// CourseProgress is the per-course record inside a snapshot.
type CourseProgress struct {
	CourseID       string                    `json:"courseId"`
	Progress       int                       `json:"progress"`
	AverageScore   int                       `json:"averageScore,omitempty"`
	StartedDate    string                    `json:"startedDate,omitempty"`
	LastAccessDate string                    `json:"lastAccessDate,omitempty"`
	CompletedDate  string                    `json:"completedDate,omitempty"`
	Modules        map[string]ModuleProgress `json:"modules"`
}

// ModuleProgress is the per-module record, keyed by module id in the parent.
type ModuleProgress struct {
	Completed     bool                `json:"completed"`
	CompletedDate string              `json:"completedDate,omitempty"`
	Score         int                 `json:"score,omitempty"` // best recorded quiz score
	QuizResults   []course.QuizResult `json:"quizResults,omitempty"`
}

// CourseByID returns a pointer into the snapshot's entry for courseID, or nil.
func (s *Snapshot) CourseByID(courseID string) *CourseProgress {
	for i := range s.Courses {
		if s.Courses[i].CourseID == courseID {
			return &s.Courses[i]
		}
	}
	return nil
}

// SetCourse replaces or appends the entry for entry.CourseID.
func (s *Snapshot) SetCourse(entry CourseProgress) {
	for i := range s.Courses {
		if s.Courses[i].CourseID == entry.CourseID {
			s.Courses[i] = entry
			return
		}
	}
	s.Courses = append(s.Courses, entry)
}

// Clone deep-copies the snapshot so callers can mutate without aliasing.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{LastUpdated: s.LastUpdated}
	for _, cp := range s.Courses {
		out.Courses = append(out.Courses, cloneCourseProgress(cp))
	}
	return out
}

func cloneCourseProgress(cp CourseProgress) CourseProgress {
	clone := cp
	clone.Modules = make(map[string]ModuleProgress, len(cp.Modules))
	for id, mp := range cp.Modules {
		mp.QuizResults = append([]course.QuizResult(nil), mp.QuizResults...)
		clone.Modules[id] = mp
	}
	return clone
}
