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


package audiomind

import (
	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/ai/anthropic"
	"github.com/poiesic/audiomind/ai/deepgram"
	"github.com/poiesic/audiomind/ai/openai"
	"github.com/poiesic/audiomind/ai/voyage"
)

// provider is the production ai.AIProvider, combining Deepgram
// transcription, Voyage or OpenAI-compatible embeddings, and Anthropic
// answer generation.
type provider struct {
	transcriber ai.Transcriber
	embedder    ai.Embedder
	generator   ai.Generator
}

var _ ai.AIProvider = (*provider)(nil)

// NewProvider builds the production AI provider from the config. The
// config is validated first, so every returned provider has a working
// transcriber, embedder and generator.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	transcriber, err := deepgram.NewTranscriber(config)
	if err != nil {
		return nil, err
	}

	var embedder ai.Embedder
	switch config.EmbeddingProvider {
	case ai.EmbeddingProviderOpenAI:
		embedder, err = openai.NewEmbedder(config)
	default:
		embedder, err = voyage.NewEmbedder(config)
	}
	if err != nil {
		return nil, err
	}

	generator, err := anthropic.NewGenerator(config)
	if err != nil {
		return nil, err
	}

	return &provider{
		transcriber: transcriber,
		embedder:    embedder,
		generator:   generator,
	}, nil
}

func (p *provider) Transcriber() ai.Transcriber {
	return p.transcriber
}

func (p *provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op. The underlying services hold no connections outside
// individual requests.
func (p *provider) Close() error {
	return nil
}
