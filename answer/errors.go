package answer

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuery is returned when the query string is empty.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrEmitRequired is returned when Stream is called without an event sink.
	ErrEmitRequired = errors.New("emit function required")
)
