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


// Package audiomind turns podcast audio into a searchable, questionable
// library: transcripts are segmented, embedded and stored with a vector
// index, then served through semantic search and grounded, streamed
// answers.
package audiomind

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/answer"
	"github.com/poiesic/audiomind/cache"
	"github.com/poiesic/audiomind/ingestion"
	"github.com/poiesic/audiomind/progress"
	"github.com/poiesic/audiomind/reindex"
	"github.com/poiesic/audiomind/search"
	"github.com/poiesic/audiomind/storage"
	"github.com/poiesic/audiomind/storage/badger"
	"github.com/poiesic/audiomind/storage/postgres"
)

// Storage backends.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// DefaultDimension matches the default embedding model.
const DefaultDimension = 1024

// Config selects and configures the storage backend.
type Config struct {
	// Backend is BackendBadger or BackendPostgres. Default is BackendBadger.
	Backend string

	// Path is the data directory for the badger backend.
	Path string

	// PostgresURL is the connection string for the postgres backend.
	PostgresURL string

	// Dimension is the embedding dimensionality. Default is DefaultDimension.
	Dimension int
}

// App wires the storage backend, the AI provider, the cache layer and the
// progress broadcaster together, and hands out the pipeline components
// built on them.
type App struct {
	library     storage.Library
	provider    ai.AIProvider
	caches      *cache.Caches
	broadcaster *progress.Broadcaster
	logger      *slog.Logger
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	library  storage.Library
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) Option {
	return func(o *appOptions) {
		if config == nil {
			config = ai.DefaultConfig()
		}
		o.aiConfig = config
	}
}

// WithProvider injects a prebuilt AI provider, bypassing provider
// construction from the AI config. Intended for tests and embedders.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// WithLibrary injects a prebuilt storage library, bypassing backend
// selection from the config. Intended for tests.
func WithLibrary(library storage.Library) Option {
	return func(o *appOptions) {
		o.library = library
	}
}

// OpenLibrary opens just the storage backend from the config. Commands
// that never touch a provider (listing, renaming, schema setup) use this
// instead of Open.
func OpenLibrary(ctx context.Context, config *Config) (storage.Library, error) {
	if config == nil {
		config = &Config{}
	}

	dim := config.Dimension
	if dim == 0 {
		dim = DefaultDimension
	}

	switch config.Backend {
	case BackendBadger, "":
		return badger.NewLibrary(config.Path, dim)
	case BackendPostgres:
		return postgres.NewLibrary(ctx, config.PostgresURL, dim)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Backend)
	}
}

// Open creates an App from the config.
func Open(ctx context.Context, config *Config, opts ...Option) (*App, error) {
	options := &appOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	library := options.library
	if library == nil {
		var err error
		library, err = OpenLibrary(ctx, config)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(options.aiConfig)
		if err != nil {
			library.Close()
			return nil, err
		}
	}

	return &App{
		library:     library,
		provider:    provider,
		caches:      cache.New(),
		broadcaster: progress.NewBroadcaster(),
		logger:      slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (a *App) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.library.Close(); err != nil {
		a.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

// Library returns the storage backend.
func (a *App) Library() storage.Library {
	return a.library
}

// Provider returns the AI provider.
func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// Broadcaster returns the shared progress broadcaster. Ingestion runs
// created through NewCoordinator report on it.
func (a *App) Broadcaster() *progress.Broadcaster {
	return a.broadcaster
}

// NewCoordinator creates an ingestion coordinator wired to the app's
// broadcaster.
func (a *App) NewCoordinator(opts ...ingestion.Option) (*ingestion.Coordinator, error) {
	opts = append([]ingestion.Option{ingestion.WithBroadcaster(a.broadcaster)}, opts...)
	return ingestion.NewCoordinator(a.library, a.provider, opts...)
}

// NewSearcher creates a searcher sharing the app's caches.
func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithCaches(a.caches)}, opts...)
	return search.NewSearcher(a.library, a.provider, opts...)
}

// NewStreamer creates an answer streamer sharing the app's caches.
func (a *App) NewStreamer(opts ...answer.Option) (*answer.Streamer, error) {
	opts = append([]answer.Option{answer.WithCaches(a.caches)}, opts...)
	return answer.NewStreamer(a.provider, opts...)
}

// NewReindexer creates a reindexer writing progress to w.
func (a *App) NewReindexer(config *reindex.Config, w io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(a.library, a.provider.Embedder(), config, w)
}
