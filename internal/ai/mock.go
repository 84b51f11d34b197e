package ai

import (
	"context"
	"sync"
)

// MockClient is a test double for the bot API client. Replies are consumed
// in order; once exhausted the last reply repeats. Errs maps 0-based call
// numbers to injected failures.
type MockClient struct {
	mu      sync.Mutex
	Replies []string
	Errs    map[int]error
	calls   int
	ChatIDs []string
	Asked   []string
}

// NewMockClient creates a MockClient returning the given replies.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{Replies: replies}
}

func (m *MockClient) Ask(_ context.Context, chatID, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.calls
	m.calls++
	m.ChatIDs = append(m.ChatIDs, chatID)
	m.Asked = append(m.Asked, message)

	if err, ok := m.Errs[call]; ok {
		return "", err
	}
	if len(m.Replies) == 0 {
		return "", nil
	}
	if call >= len(m.Replies) {
		return m.Replies[len(m.Replies)-1], nil
	}
	return m.Replies[call], nil
}

// Calls returns how many times Ask was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
