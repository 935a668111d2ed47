package mock

import (
	"context"

	"github.com/poiesic/audiomind/transcript"
)

// MockTranscriber is a test double for ai.Transcriber.
// It allows custom behavior injection via function fields.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, returns a canned single-paragraph result.
	TranscribeFunc func(ctx context.Context, audio []byte, contentType string) (*transcript.Result, error)

	callCount int
}

// NewMockTranscriber creates a mock transcriber with canned output.
// Note: Returns concrete type to allow test assertions.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns the injected result or a canned paragraph.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*transcript.Result, error) {
	m.callCount++

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, contentType)
	}

	return &transcript.Result{
		Results: transcript.Results{
			Channels: []transcript.Channel{
				{
					Alternatives: []transcript.Alternative{
						{
							Paragraphs: &transcript.Paragraphs{
								Paragraphs: []transcript.Paragraph{
									{
										Sentences: []transcript.Sentence{
											{Text: "This is a mock transcription.", Start: 0, End: 2.5},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}, nil
}

// CallCount returns the number of Transcribe calls.
func (m *MockTranscriber) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockTranscriber) Reset() {
	m.callCount = 0
	m.TranscribeFunc = nil
}
