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


// Package cache holds the three in-process caches that sit in front of the
// AI providers: query embeddings, search results and generated answers.
// Each cache combines an LRU size bound with a TTL, so entries age out even
// when the cache never fills.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/audiomind/core"
)

// Cache capacities and lifetimes. Embeddings are cheap to hold and
// expensive to recompute, so they keep the largest and longest cache.
const (
	embeddingCapacity = 500
	embeddingTTL      = 24 * time.Hour

	searchCapacity = 100
	searchTTL      = time.Hour

	answerCapacity = 200
	answerTTL      = 2 * time.Hour
)

// Caches bundles the three caches. All methods are thread-safe.
type Caches struct {
	embeddings *expirable.LRU[string, []float32]
	searches   *expirable.LRU[string, []*core.SearchResult]
	answers    *expirable.LRU[string, string]
}

// New creates the caches with their default capacities and TTLs.
func New() *Caches {
	return &Caches{
		embeddings: expirable.NewLRU[string, []float32](embeddingCapacity, nil, embeddingTTL),
		searches:   expirable.NewLRU[string, []*core.SearchResult](searchCapacity, nil, searchTTL),
		answers:    expirable.NewLRU[string, string](answerCapacity, nil, answerTTL),
	}
}

// GetEmbedding returns the cached embedding for a query text.
func (c *Caches) GetEmbedding(text string) ([]float32, bool) {
	return c.embeddings.Get(text)
}

// SetEmbedding caches the embedding for a query text.
func (c *Caches) SetEmbedding(text string, vector []float32) {
	c.embeddings.Add(text, vector)
}

// GetSearch returns the cached results for a query.
func (c *Caches) GetSearch(query string) ([]*core.SearchResult, bool) {
	return c.searches.Get(query)
}

// SetSearch caches the results for a query.
func (c *Caches) SetSearch(query string, results []*core.SearchResult) {
	c.searches.Add(query, results)
}

// GetAnswer returns the cached answer for a key built with AnswerKey.
func (c *Caches) GetAnswer(key string) (string, bool) {
	return c.answers.Get(key)
}

// SetAnswer caches a completed answer under a key built with AnswerKey.
func (c *Caches) SetAnswer(key string, answer string) {
	c.answers.Add(key, answer)
}

// Purge empties all three caches.
func (c *Caches) Purge() {
	c.embeddings.Purge()
	c.searches.Purge()
	c.answers.Purge()
}
