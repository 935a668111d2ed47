package cache

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// AnswerKey derives the answer-cache key from a query and the excerpt
// texts it was answered from. The contexts are sorted before hashing, so
// the same excerpts in a different order produce the same key.
func AnswerKey(query string, contexts []string) string {
	sorted := slices.Clone(contexts)
	slices.Sort(sorted)
	joined := strings.Join(sorted, "")
	return query + "_" + contextHash(joined)
}

// contextHash is a 32-bit rolling hash rendered in base 36. Hashing runs
// over UTF-16 code units to keep keys stable across the web client and
// this package.
func contextHash(s string) string {
	var acc int32
	for _, unit := range utf16.Encode([]rune(s)) {
		acc = (acc << 5) - acc + int32(unit)
	}
	return strconv.FormatInt(int64(acc), 36)
}
