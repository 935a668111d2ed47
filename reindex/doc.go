// Package reindex regenerates the embeddings of every stored segment.
//
// Reindexing is needed after switching embedding models or changing the
// vector dimensionality. Segments are processed in batches with retry and
// exponential backoff around the embedding calls, and vectors are
// normalized before being written back. Libraries that persist
// checkpoints let an interrupted run resume from the last completed
// batch.
package reindex
