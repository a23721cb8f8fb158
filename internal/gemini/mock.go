package gemini

import (
	"context"
	"sync"
)

// MockGenerator for testing
type MockGenerator struct {
	Answer string
	Error  error

	// BlockUntil, when set, delays the reply until the channel closes or
	// the context is canceled. Lets tests hold a request in flight.
	BlockUntil chan struct{}

	mu           sync.Mutex
	calls        int
	lastModel    string
	lastQuestion Question
}

var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(ctx context.Context, model string, q Question) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastModel = model
	m.lastQuestion = q
	block := m.BlockUntil
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Answer, m.Error
}

func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockGenerator) LastModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastModel
}

func (m *MockGenerator) LastQuestion() Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuestion
}
