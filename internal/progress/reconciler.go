package progress

import (
	"math"
	"time"

	"github.com/eduforge/eduforge/internal/course"
)

// ModuleEvent is a locally observed progress change awaiting merge.
type ModuleEvent struct {
	ModuleID  string
	Completed bool               // explicit "mark complete" action
	Result    *course.QuizResult // a finished quiz attempt, if any
}

// Restore overlays snapshot data onto the course list by course and module
// id. Courses and modules absent from the snapshot are returned unchanged.
// Applying Restore twice with the same snapshot yields the same result.
func Restore(courses []course.Course, snap *Snapshot) []course.Course {
	if snap == nil {
		return courses
	}

	out := make([]course.Course, len(courses))
	for i, c := range courses {
		out[i] = restoreCourse(c, snap.CourseByID(c.ID))
	}
	return out
}

func restoreCourse(c course.Course, saved *CourseProgress) course.Course {
	if saved == nil {
		return c
	}

	c.Progress = saved.Progress
	c.AverageScore = saved.AverageScore
	c.StartedDate = saved.StartedDate
	c.LastAccessDate = saved.LastAccessDate
	c.CompletedDate = saved.CompletedDate

	modules := make([]course.Module, len(c.Modules))
	copy(modules, c.Modules)
	for i := range modules {
		mp, ok := saved.Modules[modules[i].ID]
		if !ok {
			continue
		}
		modules[i].Completed = mp.Completed
		modules[i].CompletedDate = mp.CompletedDate
		modules[i].QuizResults = append([]course.QuizResult(nil), mp.QuizResults...)
	}
	c.Modules = modules
	return c
}

// Merge builds the updated per-course snapshot entry from prior state and
// newly observed module events. Progress is recomputed from the completed
// module count, completedDate is set once at 100% and never cleared, and
// lastAccessDate always refreshes to now.
func Merge(prior *CourseProgress, c *course.Course, events []ModuleEvent, now time.Time) CourseProgress {
	entry := CourseProgress{
		CourseID:    c.ID,
		Modules:     make(map[string]ModuleProgress, len(c.Modules)),
		StartedDate: now.Format(time.RFC3339),
	}
	if prior != nil {
		entry = cloneCourseProgress(*prior)
		if entry.Modules == nil {
			entry.Modules = make(map[string]ModuleProgress, len(c.Modules))
		}
		if entry.StartedDate == "" {
			entry.StartedDate = now.Format(time.RFC3339)
		}
	}

	for _, ev := range events {
		if c.ModuleByID(ev.ModuleID) == nil {
			continue
		}
		mp := entry.Modules[ev.ModuleID]

		if ev.Result != nil {
			// Passed is derived from the score; the caller's flag is ignored.
			res := *ev.Result
			res.Passed = res.Score >= course.PassThreshold
			mp.QuizResults = append(mp.QuizResults, res)
			if res.Score > mp.Score {
				mp.Score = res.Score
			}
			if res.Passed {
				mp.Completed = true
			}
		}
		if ev.Completed {
			mp.Completed = true
		}
		if mp.Completed && mp.CompletedDate == "" {
			mp.CompletedDate = now.Format(time.RFC3339)
		}
		entry.Modules[ev.ModuleID] = mp
	}

	completed := 0
	scoreSum, scored := 0, 0
	for i := range c.Modules {
		mp, ok := entry.Modules[c.Modules[i].ID]
		if !ok {
			continue
		}
		if mp.Completed {
			completed++
		}
		if mp.Score > 0 {
			scoreSum += mp.Score
			scored++
		}
	}

	if len(c.Modules) > 0 {
		entry.Progress = int(math.Round(100 * float64(completed) / float64(len(c.Modules))))
	}
	if scored > 0 {
		entry.AverageScore = int(math.Round(float64(scoreSum) / float64(scored)))
	}
	if entry.Progress == 100 && entry.CompletedDate == "" {
		entry.CompletedDate = now.Format(time.RFC3339)
	}
	entry.LastAccessDate = now.Format(time.RFC3339)

	return entry
}
