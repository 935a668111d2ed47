package answer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/ai/mock"
	"github.com/poiesic/audiomind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStreamer(t *testing.T, opts ...Option) (*Streamer, *mock.MockProvider) {
	t.Helper()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	opts = append([]Option{WithReplayDelay(0)}, opts...)
	streamer, err := NewStreamer(provider, opts...)
	require.NoError(t, err)
	return streamer, provider
}

func testResults() []*core.SearchResult {
	return []*core.SearchResult{
		{
			SegmentId:    core.ID(1),
			Text:         "Go was designed at Google.",
			EpisodeTitle: "Ep1",
			PodcastName:  "Test Show",
			Distance:     0.1,
		},
		{
			SegmentId:    core.ID(2),
			Text:         "It compiles very quickly.",
			EpisodeTitle: "Ep2",
			PodcastName:  "Test Show",
			Distance:     0.2,
		},
	}
}

func collectEvents(events *[]Event) func(Event) error {
	return func(event Event) error {
		*events = append(*events, event)
		return nil
	}
}

func TestNewStreamer_Validation(t *testing.T) {
	_, err := NewStreamer(nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestStream(t *testing.T) {
	streamer, provider := newTestStreamer(t)
	provider.GetMockGenerator().Chunks = []string{"Go was ", "designed ", "at Google."}

	var events []Event
	answer, err := streamer.Stream(context.Background(),
		"where was go designed", testResults(), ai.StyleNormal, collectEvents(&events))
	require.NoError(t, err)
	assert.Equal(t, "Go was designed at Google.", answer)

	// Results come first, then the answer chunks in order
	require.NotEmpty(t, events)
	assert.Equal(t, EventTypeResults, events[0].Type)

	var streamed strings.Builder
	for _, event := range events[1:] {
		assert.Equal(t, EventTypeAnswer, event.Type)
		streamed.WriteString(event.Data.(string))
	}
	assert.Equal(t, answer, streamed.String())
}

func TestStream_EmptyResultsStillAnswer(t *testing.T) {
	streamer, _ := newTestStreamer(t)

	var events []Event
	_, err := streamer.Stream(context.Background(),
		"anything", nil, ai.StyleNormal, collectEvents(&events))
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, EventTypeResults, events[0].Type)
}

func TestStream_CachedReplay(t *testing.T) {
	streamer, provider := newTestStreamer(t)
	generator := provider.GetMockGenerator()

	long := strings.Repeat("0123456789", 5) // 50 characters
	generator.Chunks = []string{long}

	var first []Event
	answer, err := streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleNormal, collectEvents(&first))
	require.NoError(t, err)
	assert.Equal(t, 1, generator.CallCount())

	// The repeat answers from cache without touching the generator
	var second []Event
	replayed, err := streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleNormal, collectEvents(&second))
	require.NoError(t, err)
	assert.Equal(t, answer, replayed)
	assert.Equal(t, 1, generator.CallCount())

	// Replay splits the 50-character answer into 20-character chunks
	require.Len(t, second, 4) // results + 3 chunks
	assert.Equal(t, EventTypeResults, second[0].Type)
	assert.Equal(t, 20, len(second[1].Data.(string)))
	assert.Equal(t, 20, len(second[2].Data.(string)))
	assert.Equal(t, 10, len(second[3].Data.(string)))

	var rebuilt strings.Builder
	for _, event := range second[1:] {
		rebuilt.WriteString(event.Data.(string))
	}
	assert.Equal(t, answer, rebuilt.String())
}

func TestStream_DifferentStyleSameCacheKey(t *testing.T) {
	// The cache key ignores style, so a style change replays the cached
	// answer rather than regenerating
	streamer, provider := newTestStreamer(t)
	generator := provider.GetMockGenerator()

	var events []Event
	_, err := streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleNormal, collectEvents(&events))
	require.NoError(t, err)

	_, err = streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleConcise, collectEvents(&events))
	require.NoError(t, err)
	assert.Equal(t, 1, generator.CallCount())
}

func TestStream_GenerationErrorNotCached(t *testing.T) {
	streamer, provider := newTestStreamer(t)
	generator := provider.GetMockGenerator()

	genErr := errors.New("model unavailable")
	generator.GenerateAnswerFunc = func(ctx context.Context, req ai.GenerateRequest, onDelta func(string) error) (string, error) {
		return "", genErr
	}

	var events []Event
	_, err := streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleNormal, collectEvents(&events))
	assert.ErrorIs(t, err, genErr)

	// After the failure a retry reaches the generator again
	generator.GenerateAnswerFunc = nil
	_, err = streamer.Stream(context.Background(),
		"query", testResults(), ai.StyleNormal, collectEvents(&events))
	require.NoError(t, err)
	assert.Equal(t, 2, generator.CallCount())
}

func TestStream_Validation(t *testing.T) {
	streamer, _ := newTestStreamer(t)

	t.Run("empty query", func(t *testing.T) {
		_, err := streamer.Stream(context.Background(), "", nil, ai.StyleNormal, func(Event) error { return nil })
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("nil emit", func(t *testing.T) {
		_, err := streamer.Stream(context.Background(), "query", nil, ai.StyleNormal, nil)
		assert.ErrorIs(t, err, ErrEmitRequired)
	})
}

func TestWriter_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	require.NoError(t, writer.WriteEvent(Event{Type: EventTypeResults, Data: []string{"a"}}))
	require.NoError(t, writer.WriteEvent(Event{Type: EventTypeAnswer, Data: "chunk"}))

	scanner := bufio.NewScanner(&buf)
	var lines []Event
	for scanner.Scan() {
		var event Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		lines = append(lines, event)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, EventTypeResults, lines[0].Type)
	assert.Equal(t, EventTypeAnswer, lines[1].Type)
	assert.Equal(t, "chunk", lines[1].Data)
}
