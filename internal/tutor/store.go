package tutor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message roles in a tutoring transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a tutoring transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one learner's conversation about one module.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CourseTitle string    `json:"course_title"`
	ModuleTitle string    `json:"module_title"`
	Messages    []Message `json:"messages"`
	StartedAt   time.Time `json:"started_at"`
}

// SessionStore persists tutoring transcripts.
type SessionStore interface {
	Create(s Session) (string, error)
	Get(id string) (*Session, error)
	AddMessage(sessionID string, msg Message) error
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (s *MemorySessionStore) Create(sess Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.ID = uuid.NewString()
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	s.sessions[sess.ID] = &sess
	return sess.ID, nil
}

func (s *MemorySessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("tutor session not found: %s", id)
	}
	out := *sess
	out.Messages = append([]Message(nil), sess.Messages...)
	return &out, nil
}

func (s *MemorySessionStore) AddMessage(sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("tutor session not found: %s", sessionID)
	}
	sess.Messages = append(sess.Messages, msg)
	return nil
}
