// Package mock provides test doubles for the ai package interfaces.
//
// The mocks default to deterministic behavior (FNV-seeded embedding
// vectors, canned transcripts, scripted answer chunks) so tests are
// repeatable without external services, and expose function fields for
// injecting failures or custom responses.
package mock
