package progress

import (
	"context"
	"sync"
	"time"
)

// Store persists per-user progress snapshots. Writes merge a single course
// entry into the user's document; readers get the whole document. Subscribe
// pushes every write to the user's document until ctx is cancelled.
//
// Writes are whole-document merges, not transactions: two concurrent
// writers for the same user can clobber each other's module maps. Accepted
// limitation.
type Store interface {
	Get(ctx context.Context, userID string) (*Snapshot, error)
	SetCourse(ctx context.Context, userID string, entry CourseProgress) error
	Delete(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (<-chan Snapshot, error)
}

// MemoryStore is an in-memory Store with subscription fan-out.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	subs      map[string][]chan Snapshot
	now       func() time.Time
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*Snapshot),
		subs:      make(map[string][]chan Snapshot),
		now:       time.Now,
	}
}

// Get returns the user's snapshot, or an empty one when nothing is stored.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[userID]
	if !ok {
		return &Snapshot{}, nil
	}
	return snap.Clone(), nil
}

func (s *MemoryStore) SetCourse(_ context.Context, userID string, entry CourseProgress) error {
	s.mu.Lock()

	snap, ok := s.snapshots[userID]
	if !ok {
		snap = &Snapshot{}
		s.snapshots[userID] = snap
	}
	snap.SetCourse(cloneCourseProgress(entry))
	snap.LastUpdated = s.now().Format(time.RFC3339)

	push := snap.Clone()
	subs := append([]chan Snapshot(nil), s.subs[userID]...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- *push:
		default: // slow subscriber, drop rather than block the write
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, userID)
	return nil
}

// Subscribe returns a channel receiving every snapshot write for userID.
// The channel closes when ctx is cancelled.
func (s *MemoryStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subs[userID] = append(s.subs[userID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.subs[userID]
		for i, sub := range subs {
			if sub == ch {
				s.subs[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
