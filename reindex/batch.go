package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
)

// BatchProcessor handles embedding generation for batches of segments.
type BatchProcessor struct {
	library        storage.Library
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(library storage.Library, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		library:        library,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of segments and updates them in
// the library. Vectors are normalized after embedding to ensure
// compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, segments []*core.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedDocuments(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(segments) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(segments), len(embeddings))
	}

	for i := range segments {
		segments[i].Vector = NormalizeVector(embeddings[i])
	}

	if err := bp.library.UpdateSegmentVectors(ctx, segments); err != nil {
		return fmt.Errorf("failed to update segments: %w", err)
	}

	return nil
}
