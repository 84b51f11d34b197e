// Package generator orchestrates sequential, rate-limited calls to the bot
// API that synthesize course modules and quizzes, with best-effort parsing
// and per-module fallback on failure.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eduforge/eduforge/internal/ai"
	"github.com/eduforge/eduforge/internal/course"
)

const (
	// DefaultModuleDelay is the pause between consecutive module requests,
	// respecting the bot API's per-caller rate limit.
	DefaultModuleDelay = 5 * time.Second

	MinModuleCount = 2
	MaxModuleCount = 10
)

// ErrInvalidParams is returned when generation parameters fail validation.
var ErrInvalidParams = errors.New("invalid generation parameters")

// Difficulty levels accepted by the pipeline.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Params describes the course to generate.
type Params struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Instructor  string `json:"instructor"`
	Difficulty  string `json:"difficulty"`
	ModuleCount int    `json:"moduleCount"`
}

// Validate checks params before any network call is attempted.
func (p Params) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidParams)
	}
	switch p.Difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return fmt.Errorf("%w: difficulty must be beginner, intermediate or advanced, got %q", ErrInvalidParams, p.Difficulty)
	}
	if p.ModuleCount < MinModuleCount || p.ModuleCount > MaxModuleCount {
		return fmt.Errorf("%w: module count must be between %d and %d, got %d", ErrInvalidParams, MinModuleCount, MaxModuleCount, p.ModuleCount)
	}
	return nil
}

// Sleeper suspends for d or until ctx is cancelled. Tests inject one so the
// inter-request delay runs without the wall clock.
type Sleeper func(ctx context.Context, d time.Duration) error

func stdSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pipeline generates course modules one at a time through the bot client.
type Pipeline struct {
	client    ai.Client
	delay     time.Duration
	sleep     Sleeper
	newChatID func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithModuleDelay overrides the inter-request delay.
func WithModuleDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.delay = d }
}

// WithSleeper replaces the wall-clock sleeper, for tests.
func WithSleeper(s Sleeper) PipelineOption {
	return func(p *Pipeline) { p.sleep = s }
}

// WithChatIDFunc replaces the per-request conversation id generator.
func WithChatIDFunc(fn func() string) PipelineOption {
	return func(p *Pipeline) { p.newChatID = fn }
}

// NewPipeline creates a generation pipeline over the given bot client.
func NewPipeline(client ai.Client, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client: client,
		delay:  DefaultModuleDelay,
		sleep:  stdSleep,
		newChatID: func() string {
			return "course_" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateCourse produces exactly params.ModuleCount modules, strictly in
// order, pausing between requests. A failed module request never aborts the
// run: it yields a placeholder module explaining the failure. The only
// whole-run error is parameter validation or context cancellation.
func (p *Pipeline) GenerateCourse(ctx context.Context, params Params) ([]course.Module, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	modules := make([]course.Module, 0, params.ModuleCount)
	for i := 0; i < params.ModuleCount; i++ {
		if i > 0 {
			slog.Debug("pausing before next module request", "delay", p.delay)
			if err := p.sleep(ctx, p.delay); err != nil {
				return nil, fmt.Errorf("generation cancelled: %w", err)
			}
		}
		modules = append(modules, p.generateModule(ctx, params, i+1))
	}
	return modules, nil
}

// generateModule requests and parses one module. All failures downgrade to
// a placeholder so the caller always receives a module for this position.
func (p *Pipeline) generateModule(ctx context.Context, params Params, moduleNumber int) course.Module {
	slog.Info("generating module", "course", params.Title, "module", moduleNumber, "of", params.ModuleCount)

	answer, err := p.client.Ask(ctx, p.newChatID(), buildModulePrompt(params, moduleNumber))
	if err != nil {
		slog.Error("module generation failed", "module", moduleNumber, "error", err)
		return placeholderModule(moduleNumber, err)
	}

	gm, err := parseModule(answer)
	if err != nil {
		slog.Error("module response unusable", "module", moduleNumber, "error", err)
		return placeholderModule(moduleNumber, err)
	}

	moduleID := "m_" + uuid.NewString()
	quizID := "q_" + uuid.NewString()
	questions := make([]course.Question, len(gm.Quiz.Questions))
	for i, q := range gm.Quiz.Questions {
		questions[i] = course.Question{
			ID:            fmt.Sprintf("%s_%d", quizID, i+1),
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
	}

	slog.Info("module generated", "module", moduleNumber, "title", gm.Title)
	return course.Module{
		ID:      moduleID,
		Title:   gm.Title,
		Content: gm.Content,
		Quiz: &course.Quiz{
			ID:        quizID,
			Title:     gm.Quiz.Title,
			Questions: questions,
		},
	}
}

// placeholderModule stands in for a module whose generation failed. It has
// no quiz, so it never blocks progression past itself.
func placeholderModule(moduleNumber int, cause error) course.Module {
	msg := "Module generation failed: " + userMessage(cause)
	return course.Module{
		ID:      "m_" + uuid.NewString(),
		Title:   fmt.Sprintf("Module %d", moduleNumber),
		Content: msg,
	}
}

func userMessage(err error) string {
	if errors.Is(err, ai.ErrNotConfigured) {
		return "bot API credentials are not configured."
	}
	return err.Error()
}

// BuildCourse assembles the previewable course value from generated
// modules. Persistence is a separate, explicit step the caller takes after
// review.
func BuildCourse(params Params, modules []course.Module) course.Course {
	return course.Course{
		Title:      params.Title,
		Instructor: params.Instructor,
		Category:   params.Category,
		Duration:   fmt.Sprintf("%dh 00m", params.ModuleCount),
		Modules:    modules,
	}
}
