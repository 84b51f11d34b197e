package course

import "fmt"

// PassThreshold is the minimum quiz score required to unlock the next module.
const PassThreshold = 80

// ErrInvalidIndex is returned when a module index is outside the course.
var ErrInvalidIndex = fmt.Errorf("module index out of range")

// Scores maps module index to the best quiz score recorded for that module.
type Scores map[int]int

// Completed is the set of module indexes explicitly marked complete.
type Completed map[int]bool

// IsUnlocked reports whether the module at moduleIndex is accessible.
//
// Module 0 is always unlocked. For later modules the gate is the previous
// module: if it has a quiz, the best recorded score must be at least
// PassThreshold, so a module once passed stays unlocked even after later
// failed retakes; if it has no quiz, it must have been explicitly marked
// complete.
func IsUnlocked(c *Course, moduleIndex int, scores Scores, completed Completed) (bool, error) {
	if moduleIndex < 0 || moduleIndex >= len(c.Modules) {
		return false, fmt.Errorf("%w: %d of %d", ErrInvalidIndex, moduleIndex, len(c.Modules))
	}
	if moduleIndex == 0 {
		return true, nil
	}

	prev := &c.Modules[moduleIndex-1]
	if prev.HasQuiz() {
		score, ok := scores[moduleIndex-1]
		return ok && score >= PassThreshold, nil
	}
	return completed[moduleIndex-1], nil
}

// UnlockedSet returns the set of accessible module indexes for a course.
func UnlockedSet(c *Course, scores Scores, completed Completed) map[int]bool {
	unlocked := make(map[int]bool, len(c.Modules))
	for i := range c.Modules {
		ok, err := IsUnlocked(c, i, scores, completed)
		if err != nil {
			continue
		}
		unlocked[i] = ok
	}
	return unlocked
}
