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


package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/transcript"
)

const defaultEndpoint = "https://api.deepgram.com/v1/listen"

// Transcriber implements ai.Transcriber against the Deepgram listen API.
type Transcriber struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

var _ ai.Transcriber = (*Transcriber)(nil)

// Option configures a Transcriber.
type Option func(*Transcriber) error

// WithEndpoint overrides the API endpoint. Used in tests.
func WithEndpoint(url string) Option {
	return func(t *Transcriber) error {
		if url == "" {
			return errors.New("deepgram: endpoint cannot be empty")
		}
		t.endpoint = url
		return nil
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transcriber) error {
		if client == nil {
			return errors.New("deepgram: http client cannot be nil")
		}
		t.client = client
		return nil
	}
}

// NewTranscriber creates a transcriber using the provided configuration.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(config *ai.Config, opts ...Option) (ai.Transcriber, error) {
	if config == nil {
		return nil, errors.New("deepgram: config is required")
	}
	if config.DeepgramAPIKey == "" {
		return nil, errors.New("deepgram: DeepgramAPIKey is required")
	}
	if config.TranscriptionModel == "" {
		return nil, errors.New("deepgram: TranscriptionModel is required")
	}

	t := &Transcriber{
		apiKey:   config.DeepgramAPIKey,
		model:    config.TranscriptionModel,
		endpoint: defaultEndpoint,
		client:   &http.Client{},
		logger:   slog.Default().With("component", "deepgram-transcriber"),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TimeoutFor scales the request deadline with the audio size: a 30 second
// floor plus 5 seconds per MiB, capped at 5 minutes.
func TimeoutFor(sizeBytes int) time.Duration {
	const (
		floor      = 30 * time.Second
		perMiB     = 5 * time.Second
		maxTimeout = 5 * time.Minute
	)
	// Divide before multiplying; bytes times nanoseconds-per-MiB
	// overflows int64 for inputs under 2 GiB.
	d := floor + time.Duration(sizeBytes/(1<<20))*perMiB
	if d > maxTimeout {
		return maxTimeout
	}
	return d
}

// Transcribe submits the audio and decodes the transcription result. The
// request runs under a size-scaled deadline; expiry maps to
// ai.ErrTranscriptionTimeout.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*transcript.Result, error) {
	timeout := TimeoutFor(len(audio))
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := url.Values{}
	params.Set("model", t.model)
	params.Set("smart_format", "true")
	params.Set("paragraphs", "true")
	params.Set("utterances", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.endpoint+"?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", contentType)

	t.logger.Debug("transcribing audio",
		"bytes", len(audio), "content_type", contentType, "timeout", timeout)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w after %s", ai.ErrTranscriptionTimeout, timeout)
		}
		return nil, fmt.Errorf("deepgram: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, &ai.ProviderError{
			Provider:   "deepgram",
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}

	var result transcript.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("deepgram: decode response: %w", err)
	}
	return &result, nil
}
