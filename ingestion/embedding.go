package ingestion

import (
	"context"
	"fmt"
	"sync"
)

// defaultBatchSize matches the embedding provider's per-request maximum.
const defaultBatchSize = 100

// EmbedTexts embeds every text, splitting the input into batches that run
// concurrently on the worker pool. The returned vectors are in input
// order regardless of batch completion order. The first batch error
// cancels the remaining batches.
func (c *Coordinator) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	completed := 0

	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		batchStart, batch := start, texts[start:end]

		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			embeddings, err := c.provider.Embedder().EmbedDocuments(ctx, batch)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			if len(embeddings) != len(batch) {
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: expected %d, received %d",
						ErrCountMismatch, len(batch), len(embeddings))
					cancel()
				}
				return
			}

			copy(vectors[batchStart:], embeddings)
			completed += len(batch)
			c.broadcaster.Step(completed, len(texts), "Generating embeddings")
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
				cancel()
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
