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


// Package ai provides abstractions for the AI services used in AudioMind.
//
// This package defines interfaces for transcription, text embedding and
// answer generation. It follows the dependency inversion principle, allowing
// the core domain and business logic to depend on abstractions rather than
// concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Transcriber: Converts audio into a transcription result
//   - Embedder: Generates vector embeddings from text
//   - Generator: Streams natural-language answers grounded in excerpts
//
// An AIProvider aggregates all three for convenient initialization.
//
// # Implementation Packages
//
// The ai package includes four implementation sub-packages:
//
//   - ai/deepgram: Speech-to-text over the Deepgram listen API
//   - ai/voyage: Embeddings over the Voyage API, with distinct document
//     and query input types
//   - ai/anthropic: Streamed answer generation over the Anthropic API
//   - ai/openai: Alternative embedder for OpenAI-compatible servers
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (voyage.NewEmbedder, anthropic.NewGenerator, etc.)
// return INTERFACE types to enforce abstraction and prevent accidental
// coupling to concrete implementations.
//
//	embedder, err := voyage.NewEmbedder(config)  // returns ai.Embedder
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public methods (CallCount, WithXFunc, Reset, etc.).
//
//	mockEmbed := mock.NewMockEmbedder()   // returns *mock.MockEmbedder
//	mockEmbed.WithEmbedQueryFunc(...)     // needs concrete type
//	count := mockEmbed.CallCount()        // test assertion
//
// # Usage Example
//
//	config := ai.NewConfig(
//	    ai.WithVoyageAPIKey(voyageKey),
//	    ai.WithAnthropicAPIKey(anthropicKey),
//	    ai.WithDeepgramAPIKey(deepgramKey),
//	)
//	if err := config.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	embedder, err := voyage.NewEmbedder(config)
//	vectors, err := embedder.EmbedDocuments(ctx, texts)
//	queryVec, err := embedder.EmbedQuery(ctx, "what is a compiler?")
package ai
