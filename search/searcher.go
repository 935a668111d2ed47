package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/cache"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
)

// DefaultMaxResults is the result limit when the caller doesn't give one.
// Only searches at this limit with no podcast filter are served from and
// written to the result cache.
const DefaultMaxResults = 10

// Searcher answers semantic queries over the podcast library.
type Searcher struct {
	library  storage.Library
	embedder ai.Embedder
	caches   *cache.Caches
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCaches sets the shared cache layer. Default is a fresh, private set
// of caches; pass the application's caches so search and answer share
// query embeddings.
func WithCaches(caches *cache.Caches) Option {
	return func(s *Searcher) error {
		if caches == nil {
			caches = cache.New()
		}
		s.caches = caches
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(library storage.Library, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		library:  library,
		embedder: provider.Embedder(),
		caches:   cache.New(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the segments most similar to the query, closest first.
// Segments containing every significant word of the query rank ahead of
// purely semantic hits. maxHits values below 1 fall back to
// DefaultMaxResults. podcastIDs, when non-empty, restricts results to
// those podcasts.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int, podcastIDs []core.ID) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, podcastIDs, nil)
}

// SearchWithMonitor runs Search with stage callbacks for observability.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, podcastIDs []core.ID, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		maxHits = DefaultMaxResults
	}

	monitor.Start(query)

	// Only the default, unfiltered search is cacheable; filtered or
	// custom-limit result sets would collide under the same query key.
	cacheable := len(podcastIDs) == 0 && maxHits == DefaultMaxResults
	if cacheable {
		if results, ok := s.caches.GetSearch(query); ok {
			s.logger.Debug("search cache hit", "query", query)
			monitor.CacheHit(results)
			monitor.Finish(results)
			return results, nil
		}
	}

	vector, fromCache := s.caches.GetEmbedding(query)
	if !fromCache {
		var err error
		vector, err = s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}
		s.caches.SetEmbedding(query, vector)
	}
	monitor.EmbeddingReady(fromCache)

	results, err := s.library.SearchNearest(ctx, vector, maxHits, podcastIDs)
	if err != nil {
		s.logger.Error("error querying for similar segments", "err", err)
		return nil, err
	}
	monitor.AfterNearestSearch(results)

	promoteVerbatimMatches(results, query)

	if cacheable {
		s.caches.SetSearch(query, results)
	}

	monitor.Finish(results)
	return results, nil
}
