package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only against a real database.
// Set AUDIOMIND_TEST_POSTGRES_URL to enable them.
func newIntegrationLibrary(t *testing.T) storage.Library {
	t.Helper()

	connString := os.Getenv("AUDIOMIND_TEST_POSTGRES_URL")
	if connString == "" {
		t.Skip("AUDIOMIND_TEST_POSTGRES_URL not set")
	}

	lib, err := NewLibrary(context.Background(), connString, 3)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestIntegration_PodcastLifecycle(t *testing.T) {
	lib := newIntegrationLibrary(t)
	ctx := context.Background()

	podcast, err := lib.GetOrCreatePodcast(ctx, "Integration Show")
	require.NoError(t, err)

	again, err := lib.GetOrCreatePodcast(ctx, "Integration Show")
	require.NoError(t, err)
	assert.Equal(t, podcast.Id, again.Id)

	segments := []*core.Segment{
		{Text: "first", StartTime: 0, EndTime: 5, Vector: []float32{1, 0, 0}},
		{Text: "second", StartTime: 5, EndTime: 10, Vector: []float32{0, 1, 0}},
	}
	episode, err := lib.AddEpisode(ctx, podcast.Id, "Ep1", segments)
	require.NoError(t, err)
	assert.NotZero(t, episode.Id)

	results, err := lib.SearchNearest(ctx, []float32{1, 0, 0}, 10, []core.ID{podcast.Id})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "first", results[0].Text)
	assert.InDelta(t, 0.0, float64(results[0].Distance), 0.001)
}

func TestIntegration_DimensionMismatch(t *testing.T) {
	lib := newIntegrationLibrary(t)
	ctx := context.Background()

	podcast, err := lib.GetOrCreatePodcast(ctx, "Dim Show")
	require.NoError(t, err)

	segments := []*core.Segment{
		{Text: "bad", StartTime: 0, EndTime: 1, Vector: []float32{1, 0}},
	}
	_, err = lib.AddEpisode(ctx, podcast.Id, "Ep", segments)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}
