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


// Package storage provides the storage abstraction layer for AudioMind.
//
// This package defines the Library interface that decouples the podcast
// library from its backing store, so that the two backends can be used
// interchangeably:
//
//   - storage/postgres: PostgreSQL with the pgvector extension. Nearest
//     neighbors come from a native vector index and ingestion runs inside
//     a SQL transaction. This is the primary backend.
//   - storage/badger: Embedded BadgerDB. Vectors are scanned and ranked by
//     cosine similarity with a minimum-similarity cutoff. No server
//     required; suited to local, single-machine libraries.
//
// Both backends present the same contract: SearchNearest ranks ascending
// by distance (1 - cosine similarity), AddEpisode is atomic per episode,
// and GetOrCreatePodcast never produces duplicate names.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Library interface to enforce
// abstraction and prevent accidental coupling to a specific backend:
//
//	lib, err := badger.NewLibrary(path, dim)  // returns storage.Library
//
// # Thread Safety
//
// All Library implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All Library methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific
// timeout requirements.
package storage
