package course

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a course id has no stored entry.
var ErrNotFound = fmt.Errorf("course not found")

// Store persists admin-created courses.
type Store interface {
	List(ctx context.Context) ([]Course, error)
	Get(ctx context.Context, id string) (*Course, error)
	// Add stores a new course and returns its generated id.
	Add(ctx context.Context, c Course) (string, error)
	Update(ctx context.Context, id string, c Course) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	courses map[string]Course
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory course store, optionally seeded
// with built-in catalog courses.
func NewMemoryStore(seed ...Course) *MemoryStore {
	s := &MemoryStore{courses: make(map[string]Course)}
	for _, c := range seed {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.courses[c.ID] = c
	}
	return s
}

func (s *MemoryStore) List(_ context.Context) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &c, nil
}

func (s *MemoryStore) Add(_ context.Context, c Course) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.courses[c.ID]; exists {
		return "", fmt.Errorf("course already exists: %s", c.ID)
	}
	s.courses[c.ID] = c
	return c.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.ID = id
	s.courses[id] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.courses, id)
	return nil
}
