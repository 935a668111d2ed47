package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/progress"
	"github.com/poiesic/audiomind/storage"
	"github.com/poiesic/audiomind/transcript"
)

// Coordinator drives the ingestion pipeline: transcription, segmentation,
// embedding and transactional storage. Embedding batches run concurrently
// on a worker pool; everything else is sequential.
type Coordinator struct {
	library     storage.Library
	provider    ai.AIProvider
	pool        *ants.Pool
	batchSize   int
	broadcaster *progress.Broadcaster
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}

		if c.pool != nil {
			c.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithBatchSize sets how many segment texts go into one embedding request.
// Default is the embedding provider's maximum of 100.
func WithBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive")
		}
		c.batchSize = size
		return nil
	}
}

// WithBroadcaster sets the progress broadcaster driven during
// ProcessAudio. Default is a broadcaster nothing subscribes to.
func WithBroadcaster(broadcaster *progress.Broadcaster) Option {
	return func(c *Coordinator) error {
		if broadcaster == nil {
			return fmt.Errorf("broadcaster must not be nil")
		}
		c.broadcaster = broadcaster
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(library storage.Library, provider ai.AIProvider, opts ...Option) (*Coordinator, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		library:     library,
		provider:    provider,
		pool:        pool,
		batchSize:   defaultBatchSize,
		broadcaster: progress.NewBroadcaster(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Result reports what an ingestion run stored.
type Result struct {
	PodcastId    core.ID
	EpisodeId    core.ID
	SegmentCount int
}

// IngestSegments stores transcript spans with their vectors as a new
// episode. The podcast is found or created by name outside the episode
// transaction, so a failed ingest can leave a new empty podcast behind but
// never a partial episode.
func (c *Coordinator) IngestSegments(ctx context.Context, podcastName, episodeTitle string, spans []transcript.Span, vectors [][]float32) (*Result, error) {
	if len(spans) == 0 {
		return nil, ErrNoSegments
	}
	if len(vectors) != len(spans) {
		return nil, fmt.Errorf("%w: %d spans, %d vectors", ErrCountMismatch, len(spans), len(vectors))
	}

	segments := make([]*core.Segment, len(spans))
	for i, span := range spans {
		segments[i] = &core.Segment{
			Text:      span.Text,
			StartTime: span.Start,
			EndTime:   span.End,
			Vector:    vectors[i],
		}
		if err := core.ValidateSegment(segments[i]); err != nil {
			return nil, err
		}
	}

	podcast, err := c.library.GetOrCreatePodcast(ctx, podcastName)
	if err != nil {
		return nil, err
	}

	episode, err := c.library.AddEpisode(ctx, podcast.Id, episodeTitle, segments)
	if err != nil {
		return nil, err
	}

	c.logger.Info("episode ingested",
		"podcast", podcastName, "episode", episodeTitle, "segments", len(segments))

	return &Result{
		PodcastId:    podcast.Id,
		EpisodeId:    episode.Id,
		SegmentCount: len(segments),
	}, nil
}

// ProcessAudio runs the whole pipeline for one audio file: transcribe,
// segment, embed and store. Progress is reported through the broadcaster
// stage by stage; a failure at any point moves it to the error stage and
// returns the error.
func (c *Coordinator) ProcessAudio(ctx context.Context, audio []byte, contentType, podcastName, episodeTitle string) (*Result, error) {
	c.broadcaster.Begin(progress.StageTranscribing, "Transcribing audio")
	transcription, err := c.provider.Transcriber().Transcribe(ctx, audio, contentType)
	if err != nil {
		c.broadcaster.Fail(err)
		return nil, err
	}

	return c.ProcessTranscription(ctx, transcription, podcastName, episodeTitle)
}

// ProcessTranscription runs the pipeline from an existing transcription:
// segment, embed and store. Callers that already hold a transcript (from a
// prior transcribe run) start here instead of ProcessAudio.
func (c *Coordinator) ProcessTranscription(ctx context.Context, transcription *transcript.Result, podcastName, episodeTitle string) (result *Result, err error) {
	defer func() {
		if err != nil {
			c.broadcaster.Fail(err)
		}
	}()

	spans, err := transcript.Segments(transcription)
	if err != nil {
		return nil, err
	}

	c.broadcaster.Begin(progress.StageProcessingSegments, "Generating embeddings")
	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}

	vectors, err := c.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	result, err = c.IngestSegments(ctx, podcastName, episodeTitle, spans, vectors)
	if err != nil {
		return nil, err
	}

	c.broadcaster.Complete(fmt.Sprintf("Stored %d segments", result.SegmentCount))
	return result, nil
}

// Release releases the worker pool. The coordinator should not be used
// after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
