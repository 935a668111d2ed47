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


package ai

import (
	"errors"
	"strings"
)

// Embedding provider identifiers accepted by Config.EmbeddingProvider.
const (
	EmbeddingProviderVoyage = "voyage"
	EmbeddingProviderOpenAI = "openai"
)

// Config holds configuration for AI service providers.
type Config struct {
	// DeepgramAPIKey authenticates transcription requests.
	DeepgramAPIKey string

	// VoyageAPIKey authenticates embedding requests when EmbeddingProvider
	// is "voyage".
	VoyageAPIKey string

	// AnthropicAPIKey authenticates answer generation requests.
	AnthropicAPIKey string

	// EmbeddingProvider selects the embedding backend: "voyage" (hosted)
	// or "openai" (any OpenAI-compatible server).
	// Default: "voyage"
	EmbeddingProvider string

	// EmbeddingHost is the base URL of the OpenAI-compatible embedding
	// server. Only used when EmbeddingProvider is "openai".
	// Example: "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier for text embeddings.
	// Default: "voyage-3.5-lite"
	EmbeddingModel string

	// TranscriptionModel is the speech-to-text model identifier.
	// Default: "nova-3"
	TranscriptionModel string

	// GenerationModel is the answer generation model identifier.
	// Default: "claude-3-5-sonnet-20241022"
	GenerationModel string

	// MaxTokens caps the length of generated answers.
	// Default: 1024
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDeepgramAPIKey sets the transcription API key.
func WithDeepgramAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.DeepgramAPIKey = key
	}
}

// WithVoyageAPIKey sets the embedding API key.
func WithVoyageAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.VoyageAPIKey = key
	}
}

// WithAnthropicAPIKey sets the generation API key.
func WithAnthropicAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.AnthropicAPIKey = key
	}
}

// WithEmbeddingProvider selects the embedding backend.
func WithEmbeddingProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = provider
	}
}

// WithEmbeddingHost sets the OpenAI-compatible embedding server URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithTranscriptionModel sets the speech-to-text model identifier.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithGenerationModel sets the answer generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithMaxTokens caps the length of generated answers.
func WithMaxTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = max
	}
}

// DefaultConfig returns a Config with the production model defaults.
// API keys are left empty and must be supplied by the caller.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingProvider:  EmbeddingProviderVoyage,
		EmbeddingModel:     "voyage-3.5-lite",
		TranscriptionModel: "nova-3",
		GenerationModel:    "claude-3-5-sonnet-20241022",
		MaxTokens:          1024,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithVoyageAPIKey(os.Getenv("VOYAGE_API_KEY")),
//       WithAnthropicAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the embedding host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.EmbeddingProvider {
	case EmbeddingProviderVoyage:
		if c.VoyageAPIKey == "" {
			return errors.New("ai config: VoyageAPIKey is required")
		}
	case EmbeddingProviderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	default:
		return errors.New("ai config: EmbeddingProvider must be \"voyage\" or \"openai\"")
	}

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.TranscriptionModel == "" {
		return errors.New("ai config: TranscriptionModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
