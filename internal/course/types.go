// Package course defines the e-learning domain model: courses composed of
// ordered modules, module quizzes, and the policy that gates sequential
// module access.
package course

import "math"

// Question is a single multiple-choice quiz question. Options always holds
// exactly four entries; CorrectAnswer is a 0-based index into Options.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correct_answer"`
}

// Quiz is an ordered set of questions gating progression past a module.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuizResult records one completed quiz attempt.
type QuizResult struct {
	QuizID string `json:"quizId"`
	Score  int    `json:"score"`
	Date   string `json:"date"`
	Passed bool   `json:"passed"`
}

// Module is a unit of course content, optionally followed by a quiz.
type Module struct {
	ID            string       `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title"`
	Content       string       `json:"content" yaml:"content"`
	Completed     bool         `json:"completed" yaml:"-"`
	CompletedDate string       `json:"completedDate,omitempty" yaml:"-"`
	Quiz          *Quiz        `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	QuizResults   []QuizResult `json:"quizResults,omitempty" yaml:"-"`
}

// HasQuiz reports whether the module ends in a quiz.
func (m *Module) HasQuiz() bool {
	return m.Quiz != nil && len(m.Quiz.Questions) > 0
}

// Course is an ordered sequence of modules with derived progress state.
type Course struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Instructor     string   `json:"instructor" yaml:"instructor"`
	Category       string   `json:"category" yaml:"category"`
	Duration       string   `json:"duration" yaml:"duration"`
	Modules        []Module `json:"modules" yaml:"modules"`
	Progress       int      `json:"progress" yaml:"-"`
	AverageScore   int      `json:"averageScore,omitempty" yaml:"-"`
	StartedDate    string   `json:"startedDate,omitempty" yaml:"-"`
	LastAccessDate string   `json:"lastAccessDate,omitempty" yaml:"-"`
	CompletedDate  string   `json:"completedDate,omitempty" yaml:"-"`
}

// ModuleByID returns the module with the given id, or nil.
func (c *Course) ModuleByID(id string) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i]
		}
	}
	return nil
}

// CompletedCount returns the number of modules marked completed.
func (c *Course) CompletedCount() int {
	n := 0
	for i := range c.Modules {
		if c.Modules[i].Completed {
			n++
		}
	}
	return n
}

// ProgressPercent derives the completion percentage from module state.
func (c *Course) ProgressPercent() int {
	if len(c.Modules) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.CompletedCount()) / float64(len(c.Modules))))
}
