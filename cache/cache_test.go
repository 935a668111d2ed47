package cache

import (
	"strings"
	"testing"

	"github.com/poiesic/audiomind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache(t *testing.T) {
	caches := New()

	_, ok := caches.GetEmbedding("missing")
	assert.False(t, ok)

	vector := []float32{0.1, 0.2, 0.3}
	caches.SetEmbedding("what is rust", vector)

	got, ok := caches.GetEmbedding("what is rust")
	require.True(t, ok)
	assert.Equal(t, vector, got)
}

func TestSearchCache(t *testing.T) {
	caches := New()

	results := []*core.SearchResult{
		{SegmentId: core.ID(1), Text: "segment text", Distance: 0.1},
	}
	caches.SetSearch("query", results)

	got, ok := caches.GetSearch("query")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, core.ID(1), got[0].SegmentId)

	_, ok = caches.GetSearch("other query")
	assert.False(t, ok)
}

func TestAnswerCache(t *testing.T) {
	caches := New()

	key := AnswerKey("what is go", []string{"excerpt one", "excerpt two"})
	caches.SetAnswer(key, "the answer")

	got, ok := caches.GetAnswer(key)
	require.True(t, ok)
	assert.Equal(t, "the answer", got)
}

func TestPurge(t *testing.T) {
	caches := New()
	caches.SetEmbedding("a", []float32{1})
	caches.SetSearch("b", nil)
	caches.SetAnswer("c", "d")

	caches.Purge()

	_, ok := caches.GetEmbedding("a")
	assert.False(t, ok)
	_, ok = caches.GetSearch("b")
	assert.False(t, ok)
	_, ok = caches.GetAnswer("c")
	assert.False(t, ok)
}

func TestAnswerKey(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := AnswerKey("query", []string{"first excerpt", "second excerpt"})
		b := AnswerKey("query", []string{"second excerpt", "first excerpt"})
		assert.Equal(t, a, b)
	})

	t.Run("query is part of the key", func(t *testing.T) {
		a := AnswerKey("query one", []string{"excerpt"})
		b := AnswerKey("query two", []string{"excerpt"})
		assert.NotEqual(t, a, b)
	})

	t.Run("contexts change the key", func(t *testing.T) {
		a := AnswerKey("query", []string{"excerpt one"})
		b := AnswerKey("query", []string{"excerpt two"})
		assert.NotEqual(t, a, b)
	})

	t.Run("key starts with the query", func(t *testing.T) {
		key := AnswerKey("my query", []string{"excerpt"})
		assert.True(t, strings.HasPrefix(key, "my query_"))
	})

	t.Run("empty contexts hash to zero", func(t *testing.T) {
		key := AnswerKey("query", nil)
		assert.Equal(t, "query_0", key)
	})

	t.Run("negative accumulator renders with sign", func(t *testing.T) {
		// A long input overflows int32 into negative territory
		long := strings.Repeat("podcast transcripts and embeddings", 20)
		key := AnswerKey("q", []string{long})
		assert.True(t, strings.HasPrefix(key, "q_"))
		assert.NotEqual(t, "q_0", key)
	})
}
