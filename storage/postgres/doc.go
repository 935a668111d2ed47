// Package postgres implements the storage.Library interface on PostgreSQL
// with the pgvector extension.
//
// Nearest-neighbor search uses the cosine-distance operator (<=>), so the
// database ranks segments without a client-side scan. Episode ingestion
// runs in a SQL transaction: the episode row, its segments and their
// embeddings commit together or not at all.
//
// The schema is created on connect. The embedding column dimension is
// fixed at creation time; pass the same dimension on every open.
package postgres
