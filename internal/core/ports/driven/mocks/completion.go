package mocks

import (
	"context"
	"sync"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// MockCompletionService is a mock implementation of CompletionService for testing
type MockCompletionService struct {
	mu sync.Mutex

	// Response is streamed back for every call unless ResponseFunc is set
	Response string

	// ResponseFunc computes the response from the request messages
	ResponseFunc func(model string, messages []driven.Message) string

	// FailNext makes the next call fail with ErrServiceUnavailable
	FailNext bool

	calls [][]driven.Message
}

// NewMockCompletionService creates a new MockCompletionService
func NewMockCompletionService(response string) *MockCompletionService {
	return &MockCompletionService{Response: response}
}

func (m *MockCompletionService) StreamComplete(ctx context.Context, model string, messages []driven.Message) (<-chan driven.StreamDelta, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	fail := m.FailNext
	m.FailNext = false
	response := m.Response
	if m.ResponseFunc != nil {
		response = m.ResponseFunc(model, messages)
	}
	m.mu.Unlock()

	if fail {
		return nil, domain.ErrServiceUnavailable
	}

	out := make(chan driven.StreamDelta)
	go func() {
		defer close(out)
		// Stream in small fragments to exercise accumulation
		const chunk = 7
		for i := 0; i < len(response); i += chunk {
			end := i + chunk
			if end > len(response) {
				end = len(response)
			}
			select {
			case out <- driven.StreamDelta{Text: response[i:end]}:
			case <-ctx.Done():
				out <- driven.StreamDelta{Err: ctx.Err()}
				return
			}
		}
	}()
	return out, nil
}

func (m *MockCompletionService) Model() string {
	return "mock-completion-model"
}

func (m *MockCompletionService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockCompletionService) Close() error {
	return nil
}

// CallCount returns how many completions were requested
func (m *MockCompletionService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastMessages returns the messages of the most recent call, or nil
func (m *MockCompletionService) LastMessages() []driven.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
