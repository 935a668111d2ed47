package storage

import (
	"context"

	"github.com/poiesic/audiomind/core"
)

// Library provides operations over the podcast library: podcasts, episodes,
// segments and their vector index. Implementations must be thread-safe and
// support concurrent access.
type Library interface {
	// GetOrCreatePodcast finds a podcast by exact, case-sensitive name or
	// creates it. At most one podcast ever exists per name.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreatePodcast(ctx context.Context, name string) (*core.Podcast, error)

	// AddEpisode stores an episode with its segments and vector index
	// entries in one transaction. Segments are written in slice order; each
	// segment and its vector entry share a generated ID. Any failure rolls
	// back the entire episode.
	// A new episode is created on every call; duplicate titles are allowed.
	AddEpisode(ctx context.Context, podcastID core.ID, title string, segments []*core.Segment) (*core.Episode, error)

	// SearchNearest returns the segments closest to the query vector,
	// ascending by distance, joined with their episode title and podcast
	// name. podcastIDs, when non-empty, restricts results to those
	// podcasts. An empty corpus or an unmatched filter yields an empty
	// slice, not an error. A limit exceeding the corpus returns every row.
	SearchNearest(ctx context.Context, vector []float32, limit int, podcastIDs []core.ID) ([]*core.SearchResult, error)

	// ListPodcasts returns every podcast with episode and segment counts,
	// ordered by name.
	ListPodcasts(ctx context.Context) ([]*core.PodcastListing, error)

	// ListEpisodes returns a podcast's episodes with segment counts, in
	// insertion order. Returns ErrNotFound if the podcast doesn't exist.
	ListEpisodes(ctx context.Context, podcastID core.ID) ([]*core.EpisodeListing, error)

	// RenamePodcast changes a podcast's name. Returns ErrNotFound if the
	// podcast doesn't exist and ErrDuplicateKey if the name is taken.
	RenamePodcast(ctx context.Context, id core.ID, name string) error

	// RenameEpisode changes an episode's title. Returns ErrNotFound if the
	// episode doesn't exist.
	RenameEpisode(ctx context.Context, id core.ID, title string) error

	// AllSegments visits every stored segment in batches of batchSize,
	// ascending by segment ID. Iteration stops at the first error from fn.
	// Checkpoint-based resume relies on the ID ordering.
	AllSegments(ctx context.Context, batchSize int, fn func(batch []*core.Segment) error) error

	// UpdateSegmentVectors replaces the stored vectors of the given
	// segments. Returns ErrNotFound if any segment doesn't exist.
	UpdateSegmentVectors(ctx context.Context, segments []*core.Segment) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CheckpointStore persists progress markers for long-running processors so
// an interrupted run can resume. Backends that cannot persist checkpoints
// may return nil from LoadCheckpoint and ignore saves.
type CheckpointStore interface {
	// SaveCheckpoint persists a checkpoint for a processor type,
	// overwriting any previous one.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor type. Clearing
	// a checkpoint that doesn't exist is not an error.
	ClearCheckpoint(ctx context.Context, processorType string) error
}
