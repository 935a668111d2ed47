// Package ingestion provides pipeline orchestration for turning podcast
// audio into stored, searchable segments.
//
// The Coordinator type manages the ingestion workflow, including:
//   - Transcribing audio through the AI provider
//   - Segmenting the transcript into timed spans
//   - Generating embeddings in concurrent batches
//   - Storing the episode and its segments in one transaction
//
// Embedding batches are processed concurrently on a worker pool while
// preserving input order in the results. Storage failures roll back the
// whole episode; the podcast record itself is created up front and
// survives a failed ingest.
package ingestion
