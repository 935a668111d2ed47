package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscriptionTimeout indicates the transcription deadline expired
	// before the provider responded.
	ErrTranscriptionTimeout = errors.New("transcription timed out")
)

// ProviderError reports a non-success response from an external AI service.
// The response body is carried verbatim for diagnosis; callers never retry
// on it automatically.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: %d %s", e.Provider, e.StatusCode, e.Body)
}
