// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
)

// processorType identifies this processor in the checkpoint store.
const processorType = "reindex"

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of segments to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of segments)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer regenerates the embeddings of every stored segment, for
// example after switching embedding models. If the library supports
// checkpoints, an interrupted run resumes where it left off.
type Reindexer struct {
	library     storage.Library
	checkpoints storage.CheckpointStore
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(library storage.Library, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	checkpoints, _ := library.(storage.CheckpointStore)

	return &Reindexer{
		library:     library,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(library, embedder, config.MaxRetries, config.RetryDelay),
	}
}

// Run executes the reindexing operation. Every segment in the library is
// reembedded with the configured embedder. Progress is reported to the
// configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	totalSegments, err := r.countSegments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count segments: %w", err)
	}
	if totalSegments == 0 {
		fmt.Fprintf(r.progress, "No segments found in library (0 segments)\n")
		return nil
	}

	resumeAfter, processed, err := r.loadCheckpoint(ctx)
	if err != nil {
		return err
	}
	if processed > 0 {
		fmt.Fprintf(r.progress, "Resuming reindex after segment %d (%d already processed)\n",
			resumeAfter, processed)
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d segments (batch size: %d)\n",
		totalSegments, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalSegments, r.config.ReportInterval)
	tracker.Start()
	tracker.Update(processed)

	err = r.library.AllSegments(ctx, r.config.BatchSize, func(segments []*core.Segment) error {
		// Skip batches fully covered by the checkpoint
		remaining := segments[:0:0]
		for _, segment := range segments {
			if segment.Id > resumeAfter {
				remaining = append(remaining, segment)
			}
		}
		if len(remaining) == 0 {
			return nil
		}

		if err := r.processor.Process(ctx, remaining); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(remaining)
		tracker.Update(processed)

		return r.saveCheckpoint(ctx, remaining[len(remaining)-1].Id, processed)
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	if err := r.clearCheckpoint(ctx); err != nil {
		return err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d segments in %v (%.1f segments/sec)\n",
		totalSegments, elapsed.Round(time.Second), float64(totalSegments)/elapsed.Seconds())

	return nil
}

func (r *Reindexer) countSegments(ctx context.Context) (int, error) {
	total := 0
	err := r.library.AllSegments(ctx, r.config.BatchSize, func(segments []*core.Segment) error {
		total += len(segments)
		return nil
	})
	return total, err
}

func (r *Reindexer) loadCheckpoint(ctx context.Context) (core.ID, int, error) {
	if r.checkpoints == nil {
		return 0, 0, nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, processorType)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return 0, 0, nil
	}
	return checkpoint.LastId, int(checkpoint.Processed), nil
}

func (r *Reindexer) saveCheckpoint(ctx context.Context, lastID core.ID, processed int) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: processorType,
		LastId:        lastID,
		Processed:     uint64(processed),
	})
}

func (r *Reindexer) clearCheckpoint(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.ClearCheckpoint(ctx, processorType)
}
