package mock

import (
	"context"
	"strings"

	"github.com/poiesic/audiomind/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateAnswerFunc is called by GenerateAnswer if set.
	// If nil, streams Chunks (or a canned answer) through onDelta.
	GenerateAnswerFunc func(ctx context.Context, req ai.GenerateRequest, onDelta func(chunk string) error) (string, error)

	// Chunks are the fragments streamed by the default behavior.
	Chunks []string

	callCount int
}

// NewMockGenerator creates a mock generator with a canned streamed answer.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Chunks: []string{"This is ", "a mock ", "answer."},
	}
}

// GenerateAnswer streams the configured chunks and returns their concatenation.
func (m *MockGenerator) GenerateAnswer(ctx context.Context, req ai.GenerateRequest, onDelta func(chunk string) error) (string, error) {
	m.callCount++

	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, req, onDelta)
	}

	for _, chunk := range m.Chunks {
		if onDelta != nil {
			if err := onDelta(chunk); err != nil {
				return "", err
			}
		}
	}
	return strings.Join(m.Chunks, ""), nil
}

// CallCount returns the number of GenerateAnswer calls.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateAnswerFunc = nil
}
