package ai

import (
	"context"

	"github.com/poiesic/audiomind/transcript"
)

// Transcriber converts raw audio into a transcription result.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe submits audio for transcription and returns the decoded
	// result. contentType identifies the audio encoding (e.g. "audio/mpeg").
	// Implementations scale their deadline with the size of the audio and
	// return ErrTranscriptionTimeout when it expires.
	Transcribe(ctx context.Context, audio []byte, contentType string) (*transcript.Result, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Document and query embeddings come from distinct provider invocations and
// are not interchangeable: corpus text goes through EmbedDocuments, search
// text through EmbedQuery.
type Embedder interface {
	// EmbedDocuments generates embeddings for corpus texts. The returned
	// slice contains one vector per input text, in input order, regardless
	// of any internal batching.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Excerpt is one retrieved transcript span handed to the generator as
// answer context.
type Excerpt struct {
	EpisodeTitle string
	Text         string
}

// GenerateRequest describes one answer generation call.
type GenerateRequest struct {
	// Query is the user's question.
	Query string

	// Excerpts are the retrieved transcript spans the answer must be
	// grounded in, in retrieval order.
	Excerpts []Excerpt

	// Style selects the response style. An empty Style means StyleNormal.
	Style Style
}

// Generator produces a streamed natural-language answer grounded in
// transcript excerpts. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateAnswer streams the answer, invoking onDelta once per text
	// fragment in arrival order, and returns the full accumulated text.
	// A non-nil error from onDelta aborts the stream and is returned.
	GenerateAnswer(ctx context.Context, req GenerateRequest, onDelta func(chunk string) error) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the Transcriber,
// Embedder and Generator instances, ensuring they share configuration and
// resources appropriately.
type AIProvider interface {
	// Transcriber returns the speech-to-text service.
	Transcriber() Transcriber

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
