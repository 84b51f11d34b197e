// Package tutor answers learner questions about the module they are
// studying, through the bot API, keeping a per-session transcript.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eduforge/eduforge/internal/ai"
)

// maxContextChars caps how much module content is inlined into the prompt.
const maxContextChars = 4000

// Context describes what the learner is currently looking at.
type Context struct {
	CourseTitle   string
	ModuleTitle   string
	ModuleContent string
}

// Tutor answers questions grounded in the active module's content.
type Tutor struct {
	client    ai.Client
	store     SessionStore
	newChatID func() string
	now       func() time.Time
}

// Option configures a Tutor.
type Option func(*Tutor)

// WithSessionStore replaces the default in-memory transcript store.
func WithSessionStore(s SessionStore) Option {
	return func(t *Tutor) { t.store = s }
}

// WithChatIDFunc replaces the per-exchange conversation id generator.
func WithChatIDFunc(fn func() string) Option {
	return func(t *Tutor) { t.newChatID = fn }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tutor) { t.now = now }
}

// New creates a Tutor over the given bot client.
func New(client ai.Client, opts ...Option) *Tutor {
	t := &Tutor{
		client: client,
		store:  NewMemorySessionStore(),
		newChatID: func() string {
			return "tutor_" + uuid.NewString()
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSession opens a transcript for one learner+module pair, seeded with
// a greeting so the conversation never starts empty.
func (t *Tutor) StartSession(userID string, tc Context) (*Session, error) {
	id, err := t.store.Create(Session{
		UserID:      userID,
		CourseTitle: tc.CourseTitle,
		ModuleTitle: tc.ModuleTitle,
		StartedAt:   t.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create tutor session: %w", err)
	}

	greeting := fmt.Sprintf("Hi! I'm your AI tutor for the module %q. Ask me anything about the material.", tc.ModuleTitle)
	if err := t.store.AddMessage(id, Message{
		Role:      RoleAssistant,
		Content:   greeting,
		CreatedAt: t.now(),
	}); err != nil {
		return nil, fmt.Errorf("seed tutor session: %w", err)
	}
	return t.store.Get(id)
}

// Ask sends one question through the bot API and records both sides of the
// exchange in the session transcript. A failed call is recorded inline as
// an error message AND returned, so the caller can react too.
func (t *Tutor) Ask(ctx context.Context, sessionID string, tc Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("tutor: empty question")
	}

	if err := t.store.AddMessage(sessionID, Message{
		Role:      RoleUser,
		Content:   question,
		CreatedAt: t.now(),
	}); err != nil {
		return "", fmt.Errorf("record question: %w", err)
	}

	slog.Info("tutor question", "session", sessionID, "module", tc.ModuleTitle, "question_len", len(question))

	answer, err := t.client.Ask(ctx, t.newChatID(), buildTutorPrompt(tc, question))
	if err != nil {
		slog.Error("tutor call failed", "session", sessionID, "error", err)
		inline := "Sorry, I could not answer that: " + err.Error()
		if storeErr := t.store.AddMessage(sessionID, Message{
			Role:      RoleAssistant,
			Content:   inline,
			CreatedAt: t.now(),
		}); storeErr != nil {
			slog.Error("failed to record tutor error", "session", sessionID, "error", storeErr)
		}
		return "", fmt.Errorf("tutor ask: %w", err)
	}

	if err := t.store.AddMessage(sessionID, Message{
		Role:      RoleAssistant,
		Content:   answer,
		CreatedAt: t.now(),
	}); err != nil {
		return "", fmt.Errorf("record answer: %w", err)
	}
	return answer, nil
}

// Session returns the transcript for id.
func (t *Tutor) Session(id string) (*Session, error) {
	return t.store.Get(id)
}

func buildTutorPrompt(tc Context, question string) string {
	content := tc.ModuleContent
	if len(content) > maxContextChars {
		content = content[:maxContextChars]
	}
	return fmt.Sprintf(`You are a friendly, encouraging tutor for the corporate training course %q.
The learner is currently studying the module %q.

Module content:
%s

Answer the learner's question concisely and in plain language. Stay on the
module's topic; if the question is unrelated, gently steer back to it.

Question: %s`, tc.CourseTitle, tc.ModuleTitle, content, question)
}
