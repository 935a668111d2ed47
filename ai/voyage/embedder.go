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


package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/audiomind/ai"
)

const (
	defaultEndpoint = "https://api.voyageai.com/v1/embeddings"

	// MaxBatchSize is the largest number of inputs the API accepts per call.
	MaxBatchSize = 100

	inputTypeDocument = "document"
	inputTypeQuery    = "query"
)

// Embedder implements ai.Embedder against the Voyage embeddings API.
//
// Corpus texts are embedded with input_type "document" and queries with
// input_type "query"; the two produce different vectors for the same text
// and must not be mixed.
type Embedder struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder) error

// WithEndpoint overrides the API endpoint. Used in tests.
func WithEndpoint(url string) Option {
	return func(e *Embedder) error {
		if url == "" {
			return errors.New("voyage: endpoint cannot be empty")
		}
		e.endpoint = url
		return nil
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) error {
		if client == nil {
			return errors.New("voyage: http client cannot be nil")
		}
		e.client = client
		return nil
	}
}

// NewEmbedder creates an embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(config, opts...)
}

func newEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if config == nil {
		return nil, errors.New("voyage: config is required")
	}
	if config.VoyageAPIKey == "" {
		return nil, errors.New("voyage: VoyageAPIKey is required")
	}
	if config.EmbeddingModel == "" {
		return nil, errors.New("voyage: EmbeddingModel is required")
	}

	e := &Embedder{
		apiKey:   config.VoyageAPIKey,
		model:    config.EmbeddingModel,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   slog.Default().With("component", "voyage-embedder"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// EmbedDocuments embeds corpus texts, splitting them into API-sized batches
// and concatenating the results in input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))
		batch := texts[start:end]

		batchVectors, err := e.embed(ctx, batch, inputTypeDocument)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batchVectors...)
	}

	e.logger.Debug("embedded documents", "count", len(vectors))
	return vectors, nil
}

// EmbedQuery embeds a search query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type embeddingRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:     texts,
		Model:     e.model,
		InputType: inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("voyage: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("voyage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voyage: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, &ai.ProviderError{
			Provider:   "voyage",
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("voyage: decode response: %w", err)
	}

	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("voyage: embedding count mismatch: expected %d, received %d",
			len(texts), len(decoded.Data))
	}

	vectors := make([][]float32, len(decoded.Data))
	for i, d := range decoded.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
