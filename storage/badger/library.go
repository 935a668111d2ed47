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


package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
)

// minSimilarity is the cosine-similarity cutoff for scan search. Segments
// scoring below it never appear in results.
const minSimilarity = 0.6

// Library implements storage.Library on an embedded BadgerDB. Nearest
// neighbors come from a full scan ranked by cosine similarity, which keeps
// the backend dependency-free at the cost of O(n) search.
type Library struct {
	backend    *Backend
	episodeSeq *badger.Sequence
	segmentSeq *badger.Sequence
	dim        int
	logger     *slog.Logger
}

var _ storage.Library = (*Library)(nil)

// NewLibrary opens a library at the given path. dim fixes the
// dimensionality of every vector the store will accept.
//
// Returns storage.Library interface to enforce abstraction.
func NewLibrary(path string, dim int) (storage.Library, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	lib, err := newLibrary(backend, dim)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return lib, nil
}

func newLibrary(backend *Backend, dim int) (*Library, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}

	episodeSeq, err := backend.GetSequence(episodeIDSeq)
	if err != nil {
		return nil, err
	}
	segmentSeq, err := backend.GetSequence(segmentIDSeq)
	if err != nil {
		episodeSeq.Release()
		return nil, err
	}

	return &Library{
		backend:    backend,
		episodeSeq: episodeSeq,
		segmentSeq: segmentSeq,
		dim:        dim,
		logger:     slog.Default().With("component", "badger-library"),
	}, nil
}

// Close releases the ID sequences and the underlying database.
func (l *Library) Close() error {
	l.episodeSeq.Release()
	l.segmentSeq.Release()
	return l.backend.Close()
}

// GetOrCreatePodcast finds or creates a podcast by exact name.
// IDs are content-based, so concurrent creation attempts converge on the
// same record.
func (l *Library) GetOrCreatePodcast(ctx context.Context, name string) (*core.Podcast, error) {
	if err := core.ValidatePodcast(&core.Podcast{Name: name}); err != nil {
		return nil, err
	}

	// Fast path: existing podcast
	podcast, err := l.findPodcastByName(name)
	if err == nil {
		return podcast, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	newPodcast := &core.Podcast{
		Id:         core.IDFromContent(name),
		Name:       name,
		InsertedAt: time.Now().UTC(),
	}

	err = l.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makePodcastKey(newPodcast.Id), storage.MarshalPodcast(newPodcast)); err != nil {
			return err
		}
		if err := tx.Set(makePodcastNameKey(name), storage.MarshalID(newPodcast.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		// A concurrent caller may have created it; try the index again.
		podcast, findErr := l.findPodcastByName(name)
		if findErr == nil {
			return podcast, nil
		}
		return nil, err
	}

	return newPodcast, nil
}

// AddEpisode stores the episode, its segments and their vectors in a single
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

	episodeID, err := l.nextID(l.episodeSeq)
	if err != nil {
		return nil, err
	}
	episode.Id = episodeID
	episode.InsertedAt = time.Now().UTC()

	err = l.backend.WithTx(func(tx *badger.Txn) error {
		// Podcast must exist before anything is written
		if _, err := readPodcast(tx, makePodcastKey(podcastID)); err != nil {
			return err
		}

		if err := tx.Set(makeEpisodeKey(episode.Id), storage.MarshalEpisode(episode)); err != nil {
			return err
		}

		for _, segment := range segments {
			segmentID, err := l.nextID(l.segmentSeq)
			if err != nil {
				return err
			}
			segment.Id = segmentID
			segment.EpisodeId = episode.Id
			if err := tx.Set(makeSegmentKey(segment.Id), storage.MarshalSegment(segment)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("episode stored",
		"episode_id", episode.Id, "podcast_id", podcastID, "segments", len(segments))
	return episode, nil
}

// SearchNearest scans every stored segment, ranks by cosine similarity and
// reports distance = 1 - similarity so results sort ascending like the
// index-backed backend.
func (l *Library) SearchNearest(ctx context.Context, vector []float32, limit int, podcastIDs []core.ID) ([]*core.SearchResult, error) {
	if len(vector) != l.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			storage.ErrDimensionMismatch, l.dim, len(vector))
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var filter map[core.ID]bool
	if len(podcastIDs) > 0 {
		filter = make(map[core.ID]bool, len(podcastIDs))
		for _, id := range podcastIDs {
			filter[id] = true
		}
	}

	results := []*core.SearchResult{}
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		episodes, err := readAllEpisodes(tx)
		if err != nil {
			return err
		}
		podcasts, err := readAllPodcasts(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(segmentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var segment *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				segment, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			if segment == nil || len(segment.Vector) == 0 {
				continue
			}

			episode, ok := episodes[segment.EpisodeId]
			if !ok {
				continue
			}
			if filter != nil && !filter[episode.PodcastId] {
				continue
			}

			similarity := cosineSimilarity(vector, segment.Vector)
			if similarity < minSimilarity {
				continue
			}

			podcastName := ""
			if podcast, ok := podcasts[episode.PodcastId]; ok {
				podcastName = podcast.Name
			}

			results = append(results, &core.SearchResult{
				SegmentId:    segment.Id,
				EpisodeId:    segment.EpisodeId,
				Text:         segment.Text,
				StartTime:    segment.StartTime,
				EndTime:      segment.EndTime,
				EpisodeTitle: episode.Title,
				PodcastName:  podcastName,
				Distance:     1 - similarity,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListPodcasts returns every podcast with its counts, ordered by name.
func (l *Library) ListPodcasts(ctx context.Context) ([]*core.PodcastListing, error) {
	listings := []*core.PodcastListing{}
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		podcasts, err := readAllPodcasts(tx)
		if err != nil {
			return err
		}
		episodes, err := readAllEpisodes(tx)
		if err != nil {
			return err
		}
		segmentCounts, err := countSegmentsByEpisode(tx)
		if err != nil {
			return err
		}

		byPodcast := make(map[core.ID]*core.PodcastListing, len(podcasts))
		for id, podcast := range podcasts {
			byPodcast[id] = &core.PodcastListing{Podcast: *podcast}
		}
		for _, episode := range episodes {
			listing, ok := byPodcast[episode.PodcastId]
			if !ok {
				continue
			}
			listing.EpisodeCount++
			listing.SegmentCount += segmentCounts[episode.Id]
		}

		for _, listing := range byPodcast {
			listings = append(listings, listing)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(listings, func(a, b *core.PodcastListing) int {
		switch {
		case a.Podcast.Name < b.Podcast.Name:
			return -1
		case a.Podcast.Name > b.Podcast.Name:
			return 1
		default:
			return 0
		}
	})
	return listings, nil
}

// ListEpisodes returns the podcast's episodes with segment counts, oldest
// first.
func (l *Library) ListEpisodes(ctx context.Context, podcastID core.ID) ([]*core.EpisodeListing, error) {
	listings := []*core.EpisodeListing{}
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := readPodcast(tx, makePodcastKey(podcastID)); err != nil {
			return err
		}

		episodes, err := readAllEpisodes(tx)
		if err != nil {
			return err
		}
		segmentCounts, err := countSegmentsByEpisode(tx)
		if err != nil {
			return err
		}

		for _, episode := range episodes {
			if episode.PodcastId != podcastID {
				continue
			}
			listings = append(listings, &core.EpisodeListing{
				Episode:      *episode,
				SegmentCount: segmentCounts[episode.Id],
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sequence IDs grow with insertion order
	slices.SortFunc(listings, func(a, b *core.EpisodeListing) int {
		if a.Episode.Id < b.Episode.Id {
			return -1
		}
		if a.Episode.Id > b.Episode.Id {
			return 1
		}
		return 0
	})
	return listings, nil
}

// RenamePodcast changes a podcast's name and maintains the name index.
func (l *Library) RenamePodcast(ctx context.Context, id core.ID, name string) error {
	if name == "" {
		return core.ErrEmptyPodcastName
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		podcast, err := readPodcast(tx, makePodcastKey(id))
		if err != nil {
			return err
		}
		if podcast.Name == name {
			return tx.Commit()
		}

		// The new name must not belong to another podcast
		if _, err := tx.Get(makePodcastNameKey(name)); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Delete(makePodcastNameKey(podcast.Name)); err != nil {
			return err
		}
		podcast.Name = name
		if err := tx.Set(makePodcastKey(id), storage.MarshalPodcast(podcast)); err != nil {
			return err
		}
		if err := tx.Set(makePodcastNameKey(name), storage.MarshalID(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RenameEpisode changes an episode's title.
func (l *Library) RenameEpisode(ctx context.Context, id core.ID, title string) error {
	if title == "" {
		return core.ErrEmptyEpisodeTitle
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		episode, err := readEpisode(tx, makeEpisodeKey(id))
		if err != nil {
			return err
		}
		episode.Title = title
		if err := tx.Set(makeEpisodeKey(id), storage.MarshalEpisode(episode)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AllSegments visits every stored segment in batches, ascending by
// segment ID. Key order is ID order, so the scan streams IDs ascending.
func (l *Library) AllSegments(ctx context.Context, batchSize int, fn func(batch []*core.Segment) error) error {
	if batchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}

	var batch []*core.Segment
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(segmentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var segment *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				segment, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			batch = append(batch, segment)

			if len(batch) >= batchSize {
				if err := fn(batch); err != nil {
					return err
				}
				batch = nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// UpdateSegmentVectors replaces the stored vectors of the given segments.
func (l *Library) UpdateSegmentVectors(ctx context.Context, segments []*core.Segment) error {
	for _, segment := range segments {
		if len(segment.Vector) != l.dim {
			return fmt.Errorf("%w: expected %d, got %d",
				storage.ErrDimensionMismatch, l.dim, len(segment.Vector))
		}
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		for _, segment := range segments {
			key := makeSegmentKey(segment.Id)
			stored, err := readSegment(tx, key)
			if err != nil {
				return err
			}
			stored.Vector = segment.Vector
			if err := tx.Set(key, storage.MarshalSegment(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// nextID draws the next sequence value, skipping the zero BadgerDB
// sequences return on first use.
func (l *Library) nextID(seq *badger.Sequence) (core.ID, error) {
	next, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

func (l *Library) findPodcastByName(name string) (*core.Podcast, error) {
	var result *core.Podcast
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePodcastNameKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var podcastID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			podcastID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readPodcast(tx, makePodcastKey(podcastID))
		return err
	}, false)
	return result, err
}

// readPodcast reads a podcast from the transaction, ErrNotFound if missing.
func readPodcast(tx *badger.Txn, key []byte) (*core.Podcast, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var podcast *core.Podcast
	err = item.Value(func(val []byte) error {
		var err error
		podcast, err = storage.UnmarshalPodcast(val)
		return err
	})
	return podcast, err
}

func readEpisode(tx *badger.Txn, key []byte) (*core.Episode, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var episode *core.Episode
	err = item.Value(func(val []byte) error {
		var err error
		episode, err = storage.UnmarshalEpisode(val)
		return err
	})
	return episode, err
}

func readSegment(tx *badger.Txn, key []byte) (*core.Segment, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var segment *core.Segment
	err = item.Value(func(val []byte) error {
		var err error
		segment, err = storage.UnmarshalSegment(val)
		return err
	})
	return segment, err
}

func readAllPodcasts(tx *badger.Txn) (map[core.ID]*core.Podcast, error) {
	podcasts := make(map[core.ID]*core.Podcast)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(podcastPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var podcast *core.Podcast
		err := iter.Item().Value(func(val []byte) error {
			var err error
			podcast, err = storage.UnmarshalPodcast(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		podcasts[podcast.Id] = podcast
	}
	return podcasts, nil
}

func readAllEpisodes(tx *badger.Txn) (map[core.ID]*core.Episode, error) {
	episodes := make(map[core.ID]*core.Episode)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(episodePrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var episode *core.Episode
		err := iter.Item().Value(func(val []byte) error {
			var err error
			episode, err = storage.UnmarshalEpisode(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		episodes[episode.Id] = episode
	}
	return episodes, nil
}

func countSegmentsByEpisode(tx *badger.Txn) (map[core.ID]int, error) {
	counts := make(map[core.ID]int)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(segmentPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var segment *core.Segment
		err := iter.Item().Value(func(val []byte) error {
			var err error
			segment, err = storage.UnmarshalSegment(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		counts[segment.EpisodeId]++
	}
	return counts, nil
}

// cosineSimilarity is dot(a,b) / (|a| * |b|). Zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
