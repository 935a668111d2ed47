// Package openai provides an ai.Embedder backed by any OpenAI-compatible
// embedding server (Ollama, LocalAI, vLLM, OpenAI itself).
//
// It is selected by setting ai.Config.EmbeddingProvider to "openai" and
// pointing EmbeddingHost at the server. Unlike the Voyage embedder, the
// underlying models are symmetric: the same vector space serves documents
// and queries.
package openai
