package search

import (
	"slices"
	"strings"

	"github.com/poiesic/audiomind/core"
)

// Stop words ignored when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

const wordPunctuation = ".,!?;:'\"-()[]{}"

// queryWords lowercases, trims punctuation and drops stop words.
func queryWords(text string) []string {
	var words []string
	for _, field := range strings.Fields(text) {
		word := strings.ToLower(strings.Trim(field, wordPunctuation))
		if word != "" && !stopWords[word] {
			words = append(words, word)
		}
	}
	return words
}

// isVerbatimMatch reports whether every significant query word appears in
// the segment text.
func isVerbatimMatch(segmentText, query string) bool {
	words := queryWords(query)
	if len(words) == 0 {
		return false
	}

	present := make(map[string]bool)
	for _, word := range queryWords(segmentText) {
		present[word] = true
	}

	for _, word := range words {
		if !present[word] {
			return false
		}
	}
	return true
}

// promoteVerbatimMatches moves segments containing all of the query's
// words ahead of purely semantic hits. The sort is stable, so within each
// group results keep their distance ordering.
func promoteVerbatimMatches(results []*core.SearchResult, query string) {
	if len(results) < 2 {
		return
	}

	matches := make(map[*core.SearchResult]bool, len(results))
	for _, result := range results {
		matches[result] = isVerbatimMatch(result.Text, query)
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case matches[a] == matches[b]:
			return 0
		case matches[a]:
			return -1
		default:
			return 1
		}
	})
}
