package ingestion

import "errors"

var (
	// ErrLibraryRequired is returned when a storage library is not provided.
	ErrLibraryRequired = errors.New("storage library required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNoSegments is returned when an ingest has nothing to store.
	ErrNoSegments = errors.New("no segments to ingest")

	// ErrCountMismatch is returned when spans and vectors, or an embedding
	// request and its response, differ in length.
	ErrCountMismatch = errors.New("count mismatch")
)
