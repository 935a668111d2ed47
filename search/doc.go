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


// Package search provides semantic search over ingested podcast segments.
//
// The Searcher type embeds the query, asks the storage backend for the
// nearest segments and returns them closest first, joined with episode
// and podcast metadata. Segments containing every significant query word
// are promoted ahead of purely semantic hits. Two caches sit in front of
// the work: query
// embeddings are reused across searches, and full result sets for
// default, unfiltered searches are served without touching the embedder
// or the store.
package search
