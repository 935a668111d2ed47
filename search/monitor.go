package search

import "github.com/poiesic/audiomind/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	CacheHit(results []*core.SearchResult)
	EmbeddingReady(fromCache bool)
	AfterNearestSearch(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) CacheHit(_ []*core.SearchResult)           {}
func (n *noopMonitor) EmbeddingReady(_ bool)                     {}
func (n *noopMonitor) AfterNearestSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
