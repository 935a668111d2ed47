package ingestion

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/poiesic/audiomind/ai/mock"
	"github.com/poiesic/audiomind/progress"
	"github.com/poiesic/audiomind/storage"
	badgerstore "github.com/poiesic/audiomind/storage/badger"
	"github.com/poiesic/audiomind/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, dim int, opts ...Option) (*Coordinator, storage.Library, *mock.MockProvider) {
	t.Helper()

	lib, err := badgerstore.NewMemoryLibrary(dim)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().Dim = dim

	opts = append([]Option{WithPoolSize(1)}, opts...)
	coordinator, err := NewCoordinator(lib, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(coordinator.Release)

	return coordinator, lib, provider
}

func spansFrom(texts ...string) []transcript.Span {
	spans := make([]transcript.Span, len(texts))
	for i, text := range texts {
		spans[i] = transcript.Span{
			Text:  text,
			Start: float64(i) * 10,
			End:   float64(i)*10 + 9,
		}
	}
	return spans
}

func TestNewCoordinator_Validation(t *testing.T) {
	lib, err := badgerstore.NewMemoryLibrary(3)
	require.NoError(t, err)
	defer lib.Close()

	t.Run("nil library", func(t *testing.T) {
		_, err := NewCoordinator(nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrLibraryRequired)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewCoordinator(lib, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})
}

func TestIngestSegments(t *testing.T) {
	coordinator, lib, _ := newTestCoordinator(t, 3)
	ctx := context.Background()

	t.Run("stores episode under named podcast", func(t *testing.T) {
		spans := spansFrom("alpha", "beta", "gamma")
		vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

		result, err := coordinator.IngestSegments(ctx, "Test Show", "Ep1", spans, vectors)
		require.NoError(t, err)
		assert.Equal(t, 3, result.SegmentCount)
		assert.NotZero(t, result.PodcastId)
		assert.NotZero(t, result.EpisodeId)

		listings, err := lib.ListPodcasts(ctx)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Test Show", listings[0].Podcast.Name)
		assert.Equal(t, 1, listings[0].EpisodeCount)
		assert.Equal(t, 3, listings[0].SegmentCount)
	})

	t.Run("same podcast reused for second episode", func(t *testing.T) {
		spans := spansFrom("delta")
		vectors := [][]float32{{1, 0, 0}}

		result, err := coordinator.IngestSegments(ctx, "Test Show", "Ep2", spans, vectors)
		require.NoError(t, err)

		listings, err := lib.ListPodcasts(ctx)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, 2, listings[0].EpisodeCount)

		episodes, err := lib.ListEpisodes(ctx, result.PodcastId)
		require.NoError(t, err)
		assert.Len(t, episodes, 2)
	})

	t.Run("count mismatch stores nothing", func(t *testing.T) {
		spans := spansFrom("one", "two")
		vectors := [][]float32{{1, 0, 0}}

		_, err := coordinator.IngestSegments(ctx, "Mismatch Show", "Ep", spans, vectors)
		assert.ErrorIs(t, err, ErrCountMismatch)

		listings, err := lib.ListPodcasts(ctx)
		require.NoError(t, err)
		for _, listing := range listings {
			assert.NotEqual(t, "Mismatch Show", listing.Podcast.Name)
		}
	})

	t.Run("invalid segment stores nothing", func(t *testing.T) {
		spans := []transcript.Span{{Text: "", Start: 0, End: 1}}
		vectors := [][]float32{{1, 0, 0}}

		_, err := coordinator.IngestSegments(ctx, "Invalid Show", "Ep", spans, vectors)
		assert.Error(t, err)

		listings, err := lib.ListPodcasts(ctx)
		require.NoError(t, err)
		for _, listing := range listings {
			assert.NotEqual(t, "Invalid Show", listing.Podcast.Name)
		}
	})

	t.Run("empty spans", func(t *testing.T) {
		_, err := coordinator.IngestSegments(ctx, "Show", "Ep", nil, nil)
		assert.ErrorIs(t, err, ErrNoSegments)
	})
}

func TestEmbedTexts(t *testing.T) {
	t.Run("order preserved across batches", func(t *testing.T) {
		coordinator, _, provider := newTestCoordinator(t, 2, WithBatchSize(2))

		// Encode the global input position into each vector
		provider.GetMockEmbedder().EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				index, err := strconv.Atoi(text)
				if err != nil {
					return nil, err
				}
				vectors[i] = []float32{float32(index), 0}
			}
			return vectors, nil
		}

		texts := make([]string, 5)
		for i := range texts {
			texts[i] = strconv.Itoa(i)
		}

		vectors, err := coordinator.EmbedTexts(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, vectors, 5)
		for i, vector := range vectors {
			assert.Equal(t, float32(i), vector[0])
		}

		// 5 texts at batch size 2 means 3 requests
		assert.Equal(t, 3, provider.GetMockEmbedder().DocumentCallCount())
	})

	t.Run("empty input makes no requests", func(t *testing.T) {
		coordinator, _, provider := newTestCoordinator(t, 2)

		vectors, err := coordinator.EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Zero(t, provider.GetMockEmbedder().DocumentCallCount())
	})

	t.Run("batch error propagates", func(t *testing.T) {
		coordinator, _, provider := newTestCoordinator(t, 2, WithBatchSize(1))

		embedErr := errors.New("embedding service down")
		provider.GetMockEmbedder().EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, embedErr
		}

		_, err := coordinator.EmbedTexts(context.Background(), []string{"a", "b", "c"})
		assert.ErrorIs(t, err, embedErr)
	})

	t.Run("short response detected", func(t *testing.T) {
		coordinator, _, provider := newTestCoordinator(t, 2)

		provider.GetMockEmbedder().EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		}

		_, err := coordinator.EmbedTexts(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ErrCountMismatch)
	})
}

func TestProcessAudio(t *testing.T) {
	t.Run("full pipeline", func(t *testing.T) {
		broadcaster := progress.NewBroadcasterWithResetDelay(time.Minute)
		coordinator, lib, provider := newTestCoordinator(t, 3, WithBroadcaster(broadcaster))
		provider.GetMockEmbedder().Dim = 3

		result, err := coordinator.ProcessAudio(context.Background(),
			[]byte("audio bytes"), "audio/mpeg", "Pipeline Show", "Ep1")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.SegmentCount)

		assert.Equal(t, progress.StageCompleted, broadcaster.State().Stage)

		listings, err := lib.ListPodcasts(context.Background())
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Pipeline Show", listings[0].Podcast.Name)
	})

	t.Run("stored transcript skips transcription", func(t *testing.T) {
		coordinator, lib, provider := newTestCoordinator(t, 3)

		transcription := &transcript.Result{
			Results: transcript.Results{
				Utterances: []transcript.Utterance{
					{Transcript: "first utterance", Start: 0, End: 4},
					{Transcript: "second utterance", Start: 4, End: 9},
				},
			},
		}

		result, err := coordinator.ProcessTranscription(context.Background(),
			transcription, "Transcript Show", "Ep1")
		require.NoError(t, err)
		assert.Equal(t, 2, result.SegmentCount)
		assert.Zero(t, provider.GetMockTranscriber().CallCount())

		episodes, err := lib.ListEpisodes(context.Background(), result.PodcastId)
		require.NoError(t, err)
		require.Len(t, episodes, 1)
		assert.Equal(t, 2, episodes[0].SegmentCount)
	})

	t.Run("progress counts never go backwards under concurrency", func(t *testing.T) {
		broadcaster := progress.NewBroadcasterWithResetDelay(time.Minute)
		coordinator, _, provider := newTestCoordinator(t, 3,
			WithBroadcaster(broadcaster), WithPoolSize(4), WithBatchSize(1))
		provider.GetMockEmbedder().Dim = 3

		utterances := make([]transcript.Utterance, 16)
		for i := range utterances {
			utterances[i] = transcript.Utterance{
				Transcript: "utterance " + strconv.Itoa(i),
				Start:      float64(i),
				End:        float64(i) + 1,
			}
		}
		transcription := &transcript.Result{
			Results: transcript.Results{Utterances: utterances},
		}

		ch, unsubscribe := broadcaster.Subscribe()
		defer unsubscribe()

		result, err := coordinator.ProcessTranscription(context.Background(),
			transcription, "Concurrent Show", "Ep1")
		require.NoError(t, err)
		assert.Equal(t, 16, result.SegmentCount)

		lastCurrent, lastProgress := 0, 0
		for {
			select {
			case state := <-ch:
				assert.GreaterOrEqual(t, state.Current, lastCurrent)
				assert.GreaterOrEqual(t, state.Progress, lastProgress)
				lastCurrent, lastProgress = state.Current, state.Progress
				if state.Stage == progress.StageCompleted {
					assert.Equal(t, 16, lastCurrent)
					assert.Equal(t, 100, lastProgress)
					return
				}
			case <-time.After(time.Second):
				t.Fatal("completed state never delivered")
			}
		}
	})

	t.Run("transcription failure reaches error stage", func(t *testing.T) {
		broadcaster := progress.NewBroadcasterWithResetDelay(time.Minute)
		coordinator, _, provider := newTestCoordinator(t, 3, WithBroadcaster(broadcaster))

		transcribeErr := errors.New("transcription unavailable")
		provider.GetMockTranscriber().TranscribeFunc = func(ctx context.Context, audio []byte, contentType string) (*transcript.Result, error) {
			return nil, transcribeErr
		}

		_, err := coordinator.ProcessAudio(context.Background(),
			[]byte("audio"), "audio/mpeg", "Show", "Ep")
		assert.ErrorIs(t, err, transcribeErr)

		state := broadcaster.State()
		assert.Equal(t, progress.StageError, state.Stage)
		assert.Equal(t, transcribeErr.Error(), state.Error)
	})
}
