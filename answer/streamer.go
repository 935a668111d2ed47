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


package answer

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/cache"
	"github.com/poiesic/audiomind/core"
)

const (
	// replayChunkSize is how many characters of a cached answer go into
	// each replayed event, so a cache hit still reads as a stream.
	replayChunkSize = 20

	defaultReplayDelay = 30 * time.Millisecond
)

// Streamer produces streamed answers grounded in search results. The
// stream always opens with one results event, then carries answer text in
// incremental chunks.
type Streamer struct {
	generator   ai.Generator
	caches      *cache.Caches
	replayDelay time.Duration
	logger      *slog.Logger
}

// Option configures a Streamer.
type Option func(*Streamer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Streamer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCaches sets the shared cache layer holding completed answers.
// Default is a fresh, private set of caches.
func WithCaches(caches *cache.Caches) Option {
	return func(s *Streamer) error {
		if caches == nil {
			caches = cache.New()
		}
		s.caches = caches
		return nil
	}
}

// WithReplayDelay sets the pause between replayed chunks of a cached
// answer. Tests pass zero to replay instantly.
func WithReplayDelay(delay time.Duration) Option {
	return func(s *Streamer) error {
		if delay < 0 {
			delay = 0
		}
		s.replayDelay = delay
		return nil
	}
}

// NewStreamer creates a new answer streamer.
func NewStreamer(provider ai.AIProvider, opts ...Option) (*Streamer, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Streamer{
		generator:   provider.Generator(),
		caches:      cache.New(),
		replayDelay: defaultReplayDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Stream answers the query from the given search results, emitting events
// as the answer arrives. The first event carries the results themselves;
// every following event carries a chunk of answer text. Returns the full
// answer.
//
// A completed answer is cached keyed on the query and the result texts;
// a later identical request replays it in fixed-size chunks without
// calling the generator. Failed generations are never cached.
func (s *Streamer) Stream(ctx context.Context, query string, results []*core.SearchResult, style ai.Style, emit func(Event) error) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}
	if emit == nil {
		return "", ErrEmitRequired
	}

	if err := emit(Event{Type: EventTypeResults, Data: results}); err != nil {
		return "", err
	}

	contexts := make([]string, len(results))
	excerpts := make([]ai.Excerpt, len(results))
	for i, result := range results {
		contexts[i] = result.Text
		excerpts[i] = ai.Excerpt{
			EpisodeTitle: result.EpisodeTitle,
			Text:         result.Text,
		}
	}

	key := cache.AnswerKey(query, contexts)
	if cached, ok := s.caches.GetAnswer(key); ok {
		s.logger.Debug("answer cache hit", "query", query)
		if err := s.replay(ctx, cached, emit); err != nil {
			return "", err
		}
		return cached, nil
	}

	answer, err := s.generator.GenerateAnswer(ctx, ai.GenerateRequest{
		Query:    query,
		Excerpts: excerpts,
		Style:    style,
	}, func(delta string) error {
		return emit(Event{Type: EventTypeAnswer, Data: delta})
	})
	if err != nil {
		s.logger.Error("error generating answer", "query", query, "err", err)
		return "", err
	}

	s.caches.SetAnswer(key, answer)
	return answer, nil
}

// replay emits a cached answer in fixed-size chunks with a short pause
// between them. Chunks split on rune boundaries.
func (s *Streamer) replay(ctx context.Context, answer string, emit func(Event) error) error {
	runes := []rune(answer)
	for start := 0; start < len(runes); start += replayChunkSize {
		end := min(start+replayChunkSize, len(runes))
		if err := emit(Event{Type: EventTypeAnswer, Data: string(runes[start:end])}); err != nil {
			return err
		}
		if end == len(runes) || s.replayDelay == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.replayDelay):
		}
	}
	return nil
}
