package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphResult(paragraphs ...Paragraph) *Result {
	return &Result{
		Results: Results{
			Channels: []Channel{
				{
					Alternatives: []Alternative{
						{Paragraphs: &Paragraphs{Paragraphs: paragraphs}},
					},
				},
			},
		},
	}
}

func TestSegments_Paragraphs(t *testing.T) {
	t.Run("joins sentences with single space", func(t *testing.T) {
		res := paragraphResult(Paragraph{
			Sentences: []Sentence{
				{Text: "Welcome back.", Start: 0.2, End: 1.1},
				{Text: "Today we talk about compilers.", Start: 1.3, End: 3.8},
			},
		})

		spans, err := Segments(res)
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Equal(t, "Welcome back. Today we talk about compilers.", spans[0].Text)
		assert.Equal(t, 0.2, spans[0].Start)
		assert.Equal(t, 3.8, spans[0].End)
	})

	t.Run("one span per paragraph in order", func(t *testing.T) {
		res := paragraphResult(
			Paragraph{Sentences: []Sentence{{Text: "First.", Start: 0, End: 1}}},
			Paragraph{Sentences: []Sentence{{Text: "Second.", Start: 1, End: 2}}},
			Paragraph{Sentences: []Sentence{{Text: "Third.", Start: 2, End: 3}}},
		)

		spans, err := Segments(res)
		require.NoError(t, err)
		require.Len(t, spans, 3)
		assert.Equal(t, "First.", spans[0].Text)
		assert.Equal(t, "Second.", spans[1].Text)
		assert.Equal(t, "Third.", spans[2].Text)
	})

	t.Run("missing timings default to zero", func(t *testing.T) {
		res := paragraphResult(Paragraph{
			Sentences: []Sentence{{Text: "No timings here."}},
		})

		spans, err := Segments(res)
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Zero(t, spans[0].Start)
		assert.Zero(t, spans[0].End)
	})

	t.Run("skips paragraphs with no sentence text", func(t *testing.T) {
		res := paragraphResult(
			Paragraph{Sentences: []Sentence{{Text: ""}}},
			Paragraph{Sentences: []Sentence{{Text: "Kept.", Start: 4, End: 5}}},
		)

		spans, err := Segments(res)
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Equal(t, "Kept.", spans[0].Text)
	})
}

func TestSegments_UtteranceFallback(t *testing.T) {
	res := &Result{
		Results: Results{
			Utterances: []Utterance{
				{Transcript: "First utterance", Start: 0, End: 2.5},
				{Transcript: "Second utterance", Start: 2.5, End: 5},
			},
		},
	}

	spans, err := Segments(res)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "First utterance", spans[0].Text)
	assert.Equal(t, 2.5, spans[1].Start)
	assert.Equal(t, 5.0, spans[1].End)
}

func TestSegments_NoTranscript(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
	}{
		{name: "nil result", res: nil},
		{name: "empty result", res: &Result{}},
		{
			name: "channels without paragraphs or utterances",
			res: &Result{
				Results: Results{
					Channels: []Channel{{Alternatives: []Alternative{{Transcript: "raw text"}}}},
				},
			},
		},
		{
			name: "empty utterance transcripts",
			res: &Result{
				Results: Results{Utterances: []Utterance{{Transcript: ""}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := Segments(tt.res)
			assert.ErrorIs(t, err, ErrNoTranscript)
			assert.Nil(t, spans)
		})
	}
}

func TestSegments_Restartable(t *testing.T) {
	res := paragraphResult(Paragraph{
		Sentences: []Sentence{{Text: "Same every time.", Start: 1, End: 2}},
	})

	first, err := Segments(res)
	require.NoError(t, err)
	second, err := Segments(res)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
