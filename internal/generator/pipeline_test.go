package generator_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eduforge/eduforge/internal/ai"
	"github.com/eduforge/eduforge/internal/generator"
)

// validModuleJSON builds a well-formed bot reply for one module: five
// questions, four options each.
func validModuleJSON(n int) string {
	questions := make([]string, 5)
	for i := range questions {
		questions[i] = fmt.Sprintf(`{
			"text": "Question %d",
			"options": ["A", "B", "C", "D"],
			"correctAnswer": %d
		}`, i+1, i%4)
	}
	return fmt.Sprintf(`{
		"title": "Module %d",
		"content": "Content for module %d.",
		"quiz": {
			"title": "Quiz: Module %d",
			"questions": [%s]
		}
	}`, n, n, n, strings.Join(questions, ","))
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func testParams(count int) generator.Params {
	return generator.Params{
		Title:       "Effective Communication",
		Category:    "Soft Skills",
		Instructor:  "Jane Doe",
		Difficulty:  generator.DifficultyBeginner,
		ModuleCount: count,
	}
}

func TestGenerateCourseAllModulesSucceed(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1), validModuleJSON(2), validModuleJSON(3))
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	modules, err := p.GenerateCourse(context.Background(), testParams(3))
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	if len(modules) != 3 {
		t.Fatalf("got %d modules, want 3", len(modules))
	}
	for i, m := range modules {
		if m.Title != fmt.Sprintf("Module %d", i+1) {
			t.Errorf("module %d title = %q", i, m.Title)
		}
		if !strings.HasPrefix(m.ID, "m_") {
			t.Errorf("module %d id = %q, want m_ prefix", i, m.ID)
		}
		if m.Quiz == nil {
			t.Fatalf("module %d has no quiz", i)
		}
		if !strings.HasPrefix(m.Quiz.ID, "q_") {
			t.Errorf("module %d quiz id = %q, want q_ prefix", i, m.Quiz.ID)
		}
		if len(m.Quiz.Questions) != 5 {
			t.Fatalf("module %d has %d questions, want 5", i, len(m.Quiz.Questions))
		}
		for j, q := range m.Quiz.Questions {
			want := fmt.Sprintf("%s_%d", m.Quiz.ID, j+1)
			if q.ID != want {
				t.Errorf("question id = %q, want %q", q.ID, want)
			}
			if len(q.Options) != 4 {
				t.Errorf("question %d has %d options, want 4", j, len(q.Options))
			}
		}
	}
	if mock.Calls() != 3 {
		t.Errorf("bot called %d times, want 3", mock.Calls())
	}
}

func TestGenerateCourseOneFailureYieldsPlaceholder(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1), validModuleJSON(2), validModuleJSON(3))
	mock.Errs = map[int]error{1: errors.New("upstream timeout")}
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	modules, err := p.GenerateCourse(context.Background(), testParams(3))
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	if len(modules) != 3 {
		t.Fatalf("got %d modules, want 3 despite the failure", len(modules))
	}

	failed := modules[1]
	if failed.Quiz != nil {
		t.Error("placeholder module must not carry a quiz")
	}
	if failed.Title != "Module 2" {
		t.Errorf("placeholder title = %q, want %q", failed.Title, "Module 2")
	}
	if !strings.Contains(failed.Content, "Module generation failed") {
		t.Errorf("placeholder content = %q, want failure notice", failed.Content)
	}
	if !strings.Contains(failed.Content, "upstream timeout") {
		t.Errorf("placeholder content = %q, want cause included", failed.Content)
	}

	// The neighbours are untouched.
	if modules[0].Quiz == nil || modules[2].Quiz == nil {
		t.Error("modules around the failure should still have quizzes")
	}
}

func TestGenerateCourseAcceptsFencedJSON(t *testing.T) {
	fenced := "```json\n" + validModuleJSON(1) + "\n```"
	mock := ai.NewMockClient(fenced, fenced)
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	modules, err := p.GenerateCourse(context.Background(), testParams(2))
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	for i, m := range modules {
		if m.Quiz == nil {
			t.Errorf("module %d: fenced JSON was not parsed", i)
		}
	}
}

func TestGenerateCourseRejectsWrongShape(t *testing.T) {
	// Four questions instead of five.
	bad := `{
		"title": "Short Quiz",
		"content": "Content.",
		"quiz": {
			"title": "Quiz",
			"questions": [
				{"text": "q1", "options": ["a","b","c","d"], "correctAnswer": 0},
				{"text": "q2", "options": ["a","b","c","d"], "correctAnswer": 1},
				{"text": "q3", "options": ["a","b","c","d"], "correctAnswer": 2},
				{"text": "q4", "options": ["a","b","c","d"], "correctAnswer": 3}
			]
		}
	}`
	mock := ai.NewMockClient(bad, validModuleJSON(2))
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	modules, err := p.GenerateCourse(context.Background(), testParams(2))
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	if modules[0].Quiz != nil {
		t.Error("invalid payload should downgrade to a quiz-less placeholder")
	}
	if !strings.Contains(modules[0].Content, "Module generation failed") {
		t.Errorf("placeholder content = %q", modules[0].Content)
	}
	if modules[1].Quiz == nil {
		t.Error("valid second module should survive")
	}
}

func TestGenerateCourseSequentialWithDelays(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1))

	var slept []time.Duration
	record := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	p := generator.NewPipeline(mock,
		generator.WithSleeper(record),
		generator.WithModuleDelay(7*time.Second),
	)

	if _, err := p.GenerateCourse(context.Background(), testParams(3)); err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}

	// No pause before the first request, one before each of the rest.
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	for i, d := range slept {
		if d != 7*time.Second {
			t.Errorf("sleep %d = %v, want 7s", i, d)
		}
	}

	// Prompts go out strictly in module order.
	for i, prompt := range mock.Asked {
		if !strings.Contains(prompt, fmt.Sprintf("module %d of 3", i+1)) {
			t.Errorf("prompt %d does not name its position: %q", i, prompt[:80])
		}
	}
}

func TestGenerateCourseCancelledDuringDelay(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1))
	cancelled := func(_ context.Context, _ time.Duration) error {
		return context.Canceled
	}
	p := generator.NewPipeline(mock, generator.WithSleeper(cancelled))

	_, err := p.GenerateCourse(context.Background(), testParams(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("bot called %d times after cancellation, want 1", mock.Calls())
	}
}

func TestGenerateCourseFreshChatIDPerRequest(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1))
	n := 0
	p := generator.NewPipeline(mock,
		generator.WithSleeper(noSleep),
		generator.WithChatIDFunc(func() string {
			n++
			return fmt.Sprintf("chat-%d", n)
		}),
	)

	if _, err := p.GenerateCourse(context.Background(), testParams(2)); err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	if len(mock.ChatIDs) != 2 || mock.ChatIDs[0] == mock.ChatIDs[1] {
		t.Errorf("chat ids = %v, want two distinct ids", mock.ChatIDs)
	}
}

func TestGenerateCourseNotConfigured(t *testing.T) {
	mock := ai.NewMockClient()
	mock.Errs = map[int]error{0: ai.ErrNotConfigured, 1: ai.ErrNotConfigured}
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	modules, err := p.GenerateCourse(context.Background(), testParams(2))
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}
	for i, m := range modules {
		if !strings.Contains(m.Content, "credentials are not configured") {
			t.Errorf("module %d content = %q, want credentials notice", i, m.Content)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  generator.Params
		wantErr bool
	}{
		{"valid", testParams(3), false},
		{"missing title", generator.Params{Difficulty: "beginner", ModuleCount: 3}, true},
		{"bad difficulty", generator.Params{Title: "T", Difficulty: "expert", ModuleCount: 3}, true},
		{"too few modules", generator.Params{Title: "T", Difficulty: "beginner", ModuleCount: 1}, true},
		{"too many modules", generator.Params{Title: "T", Difficulty: "beginner", ModuleCount: 11}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr && !errors.Is(err, generator.ErrInvalidParams) {
				t.Fatalf("err = %v, want ErrInvalidParams", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateCourseInvalidParams(t *testing.T) {
	mock := ai.NewMockClient()
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	_, err := p.GenerateCourse(context.Background(), generator.Params{})
	if !errors.Is(err, generator.ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
	if mock.Calls() != 0 {
		t.Errorf("bot called %d times for invalid params, want 0", mock.Calls())
	}
}

func TestBuildCourse(t *testing.T) {
	mock := ai.NewMockClient(validModuleJSON(1))
	p := generator.NewPipeline(mock, generator.WithSleeper(noSleep))

	params := testParams(2)
	modules, err := p.GenerateCourse(context.Background(), params)
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}

	c := generator.BuildCourse(params, modules)
	if c.Title != params.Title || c.Instructor != params.Instructor || c.Category != params.Category {
		t.Errorf("course metadata not carried over: %+v", c)
	}
	if c.Duration != "2h 00m" {
		t.Errorf("duration = %q, want %q", c.Duration, "2h 00m")
	}
	if len(c.Modules) != 2 {
		t.Errorf("course has %d modules, want 2", len(c.Modules))
	}
	if c.ID != "" {
		t.Errorf("unsaved course should have no id, got %q", c.ID)
	}
}
