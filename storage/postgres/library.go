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


package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
)

const uniqueViolationCode = "23505"

// Library implements storage.Library on PostgreSQL with the pgvector
// extension. Nearest neighbors come from the native cosine-distance
// operator, so search does not scan the corpus.
type Library struct {
	pool   *pgxpool.Pool
	dim    int
	logger *slog.Logger
}

var _ storage.Library = (*Library)(nil)
var _ storage.CheckpointStore = (*Library)(nil)

// NewLibrary connects to PostgreSQL and ensures the schema exists. dim
// fixes the dimensionality of the embedding column; changing it on an
// existing library requires a reindex.
//
// Returns storage.Library interface to enforce abstraction.
func NewLibrary(ctx context.Context, connString string, dim int) (storage.Library, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	lib := &Library{
		pool:   pool,
		dim:    dim,
		logger: slog.Default().With("component", "postgres-library"),
	}
	if err := lib.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return lib, nil
}

func (l *Library) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS podcasts (
			id BIGSERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id BIGSERIAL PRIMARY KEY,
			podcast_id BIGINT NOT NULL REFERENCES podcasts(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS segments (
			id BIGSERIAL PRIMARY KEY,
			episode_id BIGINT NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			start_time DOUBLE PRECISION NOT NULL,
			end_time DOUBLE PRECISION NOT NULL,
			embedding vector(%d)
		)`, l.dim),
		`CREATE TABLE IF NOT EXISTS checkpoints (
			processor_type TEXT PRIMARY KEY,
			last_id BIGINT NOT NULL,
			processed BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_podcast_id ON episodes(podcast_id)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_episode_id ON segments(episode_id)`,
	}

	for _, statement := range statements {
		if _, err := l.pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (l *Library) Close() error {
	l.pool.Close()
	return nil
}

// GetOrCreatePodcast finds or creates a podcast by exact name. The upsert
// resolves concurrent creation attempts inside the database.
func (l *Library) GetOrCreatePodcast(ctx context.Context, name string) (*core.Podcast, error) {
	if err := core.ValidatePodcast(&core.Podcast{Name: name}); err != nil {
		return nil, err
	}

	// The no-op update makes RETURNING yield the row on conflict too
	row := l.pool.QueryRow(ctx, `
		INSERT INTO podcasts (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, inserted_at`, name)

	var id int64
	var insertedAt time.Time
	if err := row.Scan(&id, &insertedAt); err != nil {
		return nil, fmt.Errorf("get or create podcast: %w", err)
	}

	return &core.Podcast{
		Id:         core.ID(id),
		Name:       name,
		InsertedAt: insertedAt.UTC(),
	}, nil
}

// AddEpisode stores the episode and its segments in a single SQL
// transaction. Segment IDs come from the sequence in slice order.
func (l *Library) AddEpisode(ctx context.Context, podcastID core.ID, title string, segments []*core.Segment) (*core.Episode, error) {
	episode := &core.Episode{PodcastId: podcastID, Title: title}
	if err := core.ValidateEpisode(episode); err != nil {
		return nil, err
	}
	for _, segment := range segments {
		if len(segment.Vector) != l.dim {
			return nil, fmt.Errorf("%w: expected %d, got %d",
				storage.ErrDimensionMismatch, l.dim, len(segment.Vector))
		}
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM podcasts WHERE id = $1)`,
		int64(podcastID)).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}

	var episodeID int64
	var insertedAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO episodes (podcast_id, title)
		VALUES ($1, $2)
		RETURNING id, inserted_at`,
		int64(podcastID), title).Scan(&episodeID, &insertedAt)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	episode.Id = core.ID(episodeID)
	episode.InsertedAt = insertedAt.UTC()

	for _, segment := range segments {
		var segmentID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO segments (episode_id, text, start_time, end_time, embedding)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			episodeID, segment.Text, segment.StartTime, segment.EndTime,
			pgvector.NewVector(segment.Vector)).Scan(&segmentID)
		if err != nil {
			return nil, fmt.Errorf("insert segment: %w", err)
		}
		segment.Id = core.ID(segmentID)
		segment.EpisodeId = episode.Id
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit episode: %w", err)
	}

	l.logger.Debug("episode stored",
		"episode_id", episode.Id, "podcast_id", podcastID, "segments", len(segments))
	return episode, nil
}

// SearchNearest runs a KNN query with the cosine-distance operator. The
// reported distance is the operator's value, 1 - cosine similarity.
func (l *Library) SearchNearest(ctx context.Context, vector []float32, limit int, podcastIDs []core.ID) ([]*core.SearchResult, error) {
	if len(vector) != l.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			storage.ErrDimensionMismatch, l.dim, len(vector))
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	query := `
		SELECT s.id, s.episode_id, s.text, s.start_time, s.end_time,
		       e.title, p.name, s.embedding <=> $1 AS distance
		FROM segments s
		JOIN episodes e ON e.id = s.episode_id
		JOIN podcasts p ON p.id = e.podcast_id
		WHERE s.embedding IS NOT NULL`
	args := []any{pgvector.NewVector(vector)}

	if len(podcastIDs) > 0 {
		ids := make([]int64, len(podcastIDs))
		for i, id := range podcastIDs {
			ids[i] = int64(id)
		}
		query += ` AND e.podcast_id = ANY($2)
		ORDER BY s.embedding <=> $1 LIMIT $3`
		args = append(args, ids, limit)
	} else {
		query += `
		ORDER BY s.embedding <=> $1 LIMIT $2`
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search segments: %w", err)
	}
	defer rows.Close()

	results := []*core.SearchResult{}
	for rows.Next() {
		var segmentID, episodeID int64
		var distance float64
		result := &core.SearchResult{}
		err := rows.Scan(&segmentID, &episodeID, &result.Text,
			&result.StartTime, &result.EndTime,
			&result.EpisodeTitle, &result.PodcastName, &distance)
		if err != nil {
			return nil, err
		}
		result.SegmentId = core.ID(segmentID)
		result.EpisodeId = core.ID(episodeID)
		result.Distance = float32(distance)
		results = append(results, result)
	}
	return results, rows.Err()
}

// ListPodcasts returns every podcast with its counts, ordered by name.
func (l *Library) ListPodcasts(ctx context.Context) ([]*core.PodcastListing, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT p.id, p.name, p.inserted_at,
		       COUNT(DISTINCT e.id), COUNT(s.id)
		FROM podcasts p
		LEFT JOIN episodes e ON e.podcast_id = p.id
		LEFT JOIN segments s ON s.episode_id = e.id
		GROUP BY p.id, p.name, p.inserted_at
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	defer rows.Close()

	listings := []*core.PodcastListing{}
	for rows.Next() {
		var id int64
		var insertedAt time.Time
		listing := &core.PodcastListing{}
		err := rows.Scan(&id, &listing.Podcast.Name, &insertedAt,
			&listing.EpisodeCount, &listing.SegmentCount)
		if err != nil {
			return nil, err
		}
		listing.Podcast.Id = core.ID(id)
		listing.Podcast.InsertedAt = insertedAt.UTC()
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// ListEpisodes returns the podcast's episodes with segment counts, oldest
// first.
func (l *Library) ListEpisodes(ctx context.Context, podcastID core.ID) ([]*core.EpisodeListing, error) {
	var exists bool
	if err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM podcasts WHERE id = $1)`,
		int64(podcastID)).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}

	rows, err := l.pool.Query(ctx, `
		SELECT e.id, e.title, e.inserted_at, COUNT(s.id)
		FROM episodes e
		LEFT JOIN segments s ON s.episode_id = e.id
		WHERE e.podcast_id = $1
		GROUP BY e.id, e.title, e.inserted_at
		ORDER BY e.id`, int64(podcastID))
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	listings := []*core.EpisodeListing{}
	for rows.Next() {
		var id int64
		var insertedAt time.Time
		listing := &core.EpisodeListing{}
		err := rows.Scan(&id, &listing.Episode.Title, &insertedAt,
			&listing.SegmentCount)
		if err != nil {
			return nil, err
		}
		listing.Episode.Id = core.ID(id)
		listing.Episode.PodcastId = podcastID
		listing.Episode.InsertedAt = insertedAt.UTC()
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// RenamePodcast changes a podcast's name.
func (l *Library) RenamePodcast(ctx context.Context, id core.ID, name string) error {
	if name == "" {
		return core.ErrEmptyPodcastName
	}

	tag, err := l.pool.Exec(ctx,
		`UPDATE podcasts SET name = $1 WHERE id = $2`, name, int64(id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("rename podcast: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RenameEpisode changes an episode's title.
func (l *Library) RenameEpisode(ctx context.Context, id core.ID, title string) error {
	if title == "" {
		return core.ErrEmptyEpisodeTitle
	}

	tag, err := l.pool.Exec(ctx,
		`UPDATE episodes SET title = $1 WHERE id = $2`, title, int64(id))
	if err != nil {
		return fmt.Errorf("rename episode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AllSegments visits every stored segment in batches, ordered by ID.
func (l *Library) AllSegments(ctx context.Context, batchSize int, fn func(batch []*core.Segment) error) error {
	if batchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}

	lastID := int64(0)
	for {
		rows, err := l.pool.Query(ctx, `
			SELECT id, episode_id, text, start_time, end_time, embedding
			FROM segments
			WHERE id > $1
			ORDER BY id
			LIMIT $2`, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("iterate segments: %w", err)
		}

		batch, err := scanSegments(rows)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}
		lastID = int64(batch[len(batch)-1].Id)

		if len(batch) < batchSize {
			return nil
		}
	}
}

func scanSegments(rows pgx.Rows) ([]*core.Segment, error) {
	defer rows.Close()

	var batch []*core.Segment
	for rows.Next() {
		var id, episodeID int64
		var embedding *pgvector.Vector
		segment := &core.Segment{}
		err := rows.Scan(&id, &episodeID, &segment.Text,
			&segment.StartTime, &segment.EndTime, &embedding)
		if err != nil {
			return nil, err
		}
		segment.Id = core.ID(id)
		segment.EpisodeId = core.ID(episodeID)
		if embedding != nil {
			segment.Vector = embedding.Slice()
		}
		batch = append(batch, segment)
	}
	return batch, rows.Err()
}

// UpdateSegmentVectors replaces the stored vectors of the given segments
// in one transaction.
func (l *Library) UpdateSegmentVectors(ctx context.Context, segments []*core.Segment) error {
	for _, segment := range segments {
		if len(segment.Vector) != l.dim {
			return fmt.Errorf("%w: expected %d, got %d",
				storage.ErrDimensionMismatch, l.dim, len(segment.Vector))
		}
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, segment := range segments {
		tag, err := tx.Exec(ctx,
			`UPDATE segments SET embedding = $1 WHERE id = $2`,
			pgvector.NewVector(segment.Vector), int64(segment.Id))
		if err != nil {
			return fmt.Errorf("update segment vector: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
	}

	return tx.Commit(ctx)
}

// SaveCheckpoint persists a checkpoint for a processor type.
func (l *Library) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	_, err := l.pool.Exec(ctx, `
		INSERT INTO checkpoints (processor_type, last_id, processed, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (processor_type) DO UPDATE
		SET last_id = EXCLUDED.last_id,
		    processed = EXCLUDED.processed,
		    updated_at = EXCLUDED.updated_at`,
		checkpoint.ProcessorType, int64(checkpoint.LastId),
		int64(checkpoint.Processed), checkpoint.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves the checkpoint for a processor type.
// Returns nil, nil if no checkpoint exists.
func (l *Library) LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error) {
	row := l.pool.QueryRow(ctx, `
		SELECT last_id, processed, updated_at
		FROM checkpoints WHERE processor_type = $1`, processorType)

	var lastID, processed int64
	var updatedAt time.Time
	err := row.Scan(&lastID, &processed, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	return &core.Checkpoint{
		ProcessorType: processorType,
		LastId:        core.ID(lastID),
		Processed:     uint64(processed),
		UpdatedAt:     updatedAt.UTC(),
	}, nil
}

// ClearCheckpoint removes the checkpoint for a processor type.
func (l *Library) ClearCheckpoint(ctx context.Context, processorType string) error {
	_, err := l.pool.Exec(ctx,
		`DELETE FROM checkpoints WHERE processor_type = $1`, processorType)
	if err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
