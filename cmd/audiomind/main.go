// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/audiomind"
	"github.com/poiesic/audiomind/ai"
	"github.com/poiesic/audiomind/answer"
	"github.com/poiesic/audiomind/core"
	"github.com/poiesic/audiomind/reindex"
	"github.com/poiesic/audiomind/storage"
	"github.com/poiesic/audiomind/transcript"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "audiomind",
		Usage: "Semantic search and question answering over podcast audio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the storage backend (database directory or schema)",
				Action: initCommand,
				Flags:  storageFlags(),
			},
			{
				Name:      "transcribe",
				Usage:     "Transcribe an audio file to a transcript JSON artifact",
				ArgsUsage: "AUDIO_FILE",
				Action:    transcribeCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the transcript to this file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Audio MIME type (detected from the file extension if omitted)",
					},
				),
			},
			{
				Name:      "embed",
				Usage:     "Segment and embed a transcript artifact",
				ArgsUsage: "TRANSCRIPT_FILE",
				Action:    embedCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the embedded segments to this file instead of stdout",
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Store an embedded-segments artifact as a new episode",
				ArgsUsage: "SEGMENTS_FILE",
				Action:    ingestCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:     "podcast",
						Aliases:  []string{"p"},
						Usage:    "Podcast name the episode belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "episode",
						Aliases:  []string{"e"},
						Usage:    "Episode title",
						Required: true,
					},
				),
			},
			{
				Name:      "process",
				Usage:     "Transcribe, embed and ingest an audio file in one run",
				ArgsUsage: "AUDIO_FILE",
				Action:    processCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:     "podcast",
						Aliases:  []string{"p"},
						Usage:    "Podcast name the episode belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "episode",
						Aliases: []string{"e"},
						Usage:   "Episode title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Audio MIME type (detected from the file extension if omitted)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Find transcript segments similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:    "podcast",
						Aliases: []string{"p"},
						Usage:   "Restrict results to the named podcasts (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit results as JSON",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the library's transcripts",
				ArgsUsage: "QUESTION...",
				Action:    askCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of transcript segments to ground the answer in",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "style",
						Usage: "Response style (normal, concise, explanatory, formal)",
						Value: "normal",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit newline-delimited JSON events instead of plain text",
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List podcasts, or a podcast's episodes",
				Action: listCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:    "podcast",
						Aliases: []string{"p"},
						Usage:   "List the episodes of this podcast instead",
					},
				),
			},
			{
				Name:  "rename",
				Usage: "Rename a podcast or an episode",
				Subcommands: []*cli.Command{
					{
						Name:      "podcast",
						Usage:     "Rename a podcast",
						ArgsUsage: "PODCAST_ID NEW_NAME",
						Action:    renamePodcastCommand,
						Flags:     storageFlags(),
					},
					{
						Name:      "episode",
						Usage:     "Rename an episode",
						ArgsUsage: "EPISODE_ID NEW_TITLE",
						Action:    renameEpisodeCommand,
						Flags:     storageFlags(),
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Regenerate the embeddings of every stored segment",
				Action: reindexCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of segments to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N segments",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storageFlags are shared by every command that opens the library.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the BadgerDB database directory",
			Value:   "./audiomind_db",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Storage backend (badger, postgres)",
			Value: audiomind.BackendBadger,
		},
		&cli.StringFlag{
			Name:  "postgres-url",
			Usage: "Postgres connection string (postgres backend only)",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding dimensionality",
			Value: audiomind.DefaultDimension,
		},
		&cli.StringFlag{
			Name:  "embedding-provider",
			Usage: "Embedding backend (voyage, openai)",
			Value: ai.EmbeddingProviderVoyage,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "OpenAI-compatible embedding server URL (openai provider only)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "voyage-3.5-lite",
		},
	}
}

func storageConfig(c *cli.Context) *audiomind.Config {
	return &audiomind.Config{
		Backend:     c.String("backend"),
		Path:        c.String("db"),
		PostgresURL: c.String("postgres-url"),
		Dimension:   c.Int("dimension"),
	}
}

// openApp opens the library and the AI provider from the command's flags.
// API keys come from the environment: DEEPGRAM_API_KEY, VOYAGE_API_KEY and
// ANTHROPIC_API_KEY.
func openApp(c *cli.Context) (*audiomind.App, error) {
	aiConfig := ai.NewConfig(
		ai.WithDeepgramAPIKey(os.Getenv("DEEPGRAM_API_KEY")),
		ai.WithVoyageAPIKey(os.Getenv("VOYAGE_API_KEY")),
		ai.WithAnthropicAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
		ai.WithEmbeddingProvider(c.String("embedding-provider")),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	return audiomind.Open(c.Context, storageConfig(c), audiomind.WithAIConfig(aiConfig))
}

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
}

func detectContentType(c *cli.Context, path string) (string, error) {
	if contentType := c.String("content-type"); contentType != "" {
		return contentType, nil
	}
	contentType := contentTypes[strings.ToLower(filepath.Ext(path))]
	if contentType == "" {
		return "", fmt.Errorf("cannot detect content type of %q, pass --content-type", path)
	}
	return contentType, nil
}

// writeArtifact marshals v to the --output file, or stdout when unset.
func writeArtifact(c *cli.Context, v any) error {
	out := os.Stdout
	if path := c.String("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// embeddedSegment is one transcript span with its vector, as produced by
// the embed command and consumed by ingest.
type embeddedSegment struct {
	Text   string    `json:"text"`
	Start  float64   `json:"start"`
	End    float64   `json:"end"`
	Vector []float32 `json:"vector"`
}

type segmentsArtifact struct {
	Segments []embeddedSegment `json:"segments"`
}

func initCommand(c *cli.Context) error {
	lib, err := audiomind.OpenLibrary(c.Context, storageConfig(c))
	if err != nil {
		return err
	}
	if err := lib.Close(); err != nil {
		return err
	}
	fmt.Println("Storage initialized")
	return nil
}

func transcribeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one audio file argument")
	}
	path := c.Args().First()

	contentType, err := detectContentType(c, path)
	if err != nil {
		return err
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Provider().Transcriber().Transcribe(c.Context, audio, contentType)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	return writeArtifact(c, result)
}

func embedCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one transcript file argument")
	}

	var result transcript.Result
	if err := readArtifact(c.Args().First(), &result); err != nil {
		return err
	}
	spans, err := transcript.Segments(&result)
	if err != nil {
		return err
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	coordinator, err := app.NewCoordinator()
	if err != nil {
		return err
	}
	defer coordinator.Release()

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}
	vectors, err := coordinator.EmbedTexts(c.Context, texts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	artifact := segmentsArtifact{Segments: make([]embeddedSegment, len(spans))}
	for i, span := range spans {
		artifact.Segments[i] = embeddedSegment{
			Text:   span.Text,
			Start:  span.Start,
			End:    span.End,
			Vector: vectors[i],
		}
	}
	return writeArtifact(c, artifact)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one segments file argument")
	}

	var artifact segmentsArtifact
	if err := readArtifact(c.Args().First(), &artifact); err != nil {
		return err
	}
	if len(artifact.Segments) == 0 {
		return fmt.Errorf("artifact contains no segments")
	}

	segments := make([]*core.Segment, len(artifact.Segments))
	for i, s := range artifact.Segments {
		segments[i] = &core.Segment{
			Text:      s.Text,
			StartTime: s.Start,
			EndTime:   s.End,
			Vector:    s.Vector,
		}
	}

	lib, err := audiomind.OpenLibrary(c.Context, storageConfig(c))
	if err != nil {
		return err
	}
	defer lib.Close()

	podcast, err := lib.GetOrCreatePodcast(c.Context, c.String("podcast"))
	if err != nil {
		return err
	}
	episode, err := lib.AddEpisode(c.Context, podcast.Id, c.String("episode"), segments)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested episode %d (%q) into podcast %d with %d segments\n",
		episode.Id, episode.Title, podcast.Id, len(segments))
	return nil
}

func processCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one audio file argument")
	}
	path := c.Args().First()

	contentType, err := detectContentType(c, path)
	if err != nil {
		return err
	}

	episodeTitle := c.String("episode")
	if episodeTitle == "" {
		episodeTitle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	coordinator, err := app.NewCoordinator()
	if err != nil {
		return err
	}
	defer coordinator.Release()

	// Emit progress snapshots as JSON lines while the pipeline runs
	watchCtx, stopWatch := context.WithCancel(c.Context)
	defer stopWatch()
	go func() {
		enc := json.NewEncoder(os.Stderr)
		for state := range app.Broadcaster().Watch(watchCtx) {
			enc.Encode(state)
		}
	}()

	result, err := coordinator.ProcessAudio(c.Context, audio, contentType, c.String("podcast"), episodeTitle)
	stopWatch()
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	fmt.Printf("Ingested episode %d (%q) into podcast %d with %d segments\n",
		result.EpisodeId, episodeTitle, result.PodcastId, result.SegmentCount)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	podcastIDs, err := resolvePodcastNames(c.Context, app, c.StringSlice("podcast"))
	if err != nil {
		return err
	}

	searcher, err := app.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.Search(c.Context, query, c.Int("limit"), podcastIDs)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%s / %s] %s (%s-%s)[%0.3f]\n",
			i, hit.PodcastName, hit.EpisodeTitle, hit.Text,
			formatTimestamp(hit.StartTime), formatTimestamp(hit.EndTime), hit.Distance)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("question is required")
	}

	style, err := ai.ParseStyle(c.String("style"))
	if err != nil {
		return err
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	searcher, err := app.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, query, c.Int("limit"), nil)
	if err != nil {
		return err
	}

	streamer, err := app.NewStreamer()
	if err != nil {
		return err
	}

	var emit func(answer.Event) error
	if c.Bool("json") {
		writer := answer.NewWriter(os.Stdout)
		emit = writer.WriteEvent
	} else {
		emit = func(event answer.Event) error {
			switch event.Type {
			case answer.EventTypeResults:
				fmt.Fprintf(os.Stderr, "Answering from %d transcript segments\n\n", len(results))
			case answer.EventTypeAnswer:
				if chunk, ok := event.Data.(string); ok {
					fmt.Print(chunk)
				}
			}
			return nil
		}
	}

	if _, err := streamer.Stream(c.Context, query, results, style, emit); err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}
	if !c.Bool("json") {
		fmt.Println()
	}
	return nil
}

func listCommand(c *cli.Context) error {
	lib, err := audiomind.OpenLibrary(c.Context, storageConfig(c))
	if err != nil {
		return err
	}
	defer lib.Close()

	if name := c.String("podcast"); name != "" {
		podcastID, err := findPodcastID(c.Context, lib, name)
		if err != nil {
			return err
		}
		listings, err := lib.ListEpisodes(c.Context, podcastID)
		if err != nil {
			return err
		}
		for _, listing := range listings {
			fmt.Printf("%d: %s (%d segments, added %s)\n",
				listing.Episode.Id, listing.Episode.Title, listing.SegmentCount,
				listing.Episode.InsertedAt.Format(time.DateOnly))
		}
		return nil
	}

	listings, err := lib.ListPodcasts(c.Context)
	if err != nil {
		return err
	}
	for _, listing := range listings {
		fmt.Printf("%d: %s (%d episodes, %d segments)\n",
			listing.Podcast.Id, listing.Podcast.Name,
			listing.EpisodeCount, listing.SegmentCount)
	}
	return nil
}

func renamePodcastCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected PODCAST_ID and NEW_NAME arguments")
	}
	id, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid podcast id %q", c.Args().Get(0))
	}

	lib, err := audiomind.OpenLibrary(c.Context, storageConfig(c))
	if err != nil {
		return err
	}
	defer lib.Close()

	return lib.RenamePodcast(c.Context, core.ID(id), c.Args().Get(1))
}

func renameEpisodeCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected EPISODE_ID and NEW_TITLE arguments")
	}
	id, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid episode id %q", c.Args().Get(0))
	}

	lib, err := audiomind.OpenLibrary(c.Context, storageConfig(c))
	if err != nil {
		return err
	}
	defer lib.Close()

	return lib.RenameEpisode(c.Context, core.ID(id), c.Args().Get(1))
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	reindexer := app.NewReindexer(config, os.Stderr)
	if err := reindexer.Run(c.Context); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

// resolvePodcastNames maps podcast names to their IDs.
func resolvePodcastNames(ctx context.Context, app *audiomind.App, names []string) ([]core.ID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	listings, err := app.Library().ListPodcasts(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]core.ID, len(listings))
	for _, listing := range listings {
		byName[listing.Podcast.Name] = listing.Podcast.Id
	}

	ids := make([]core.ID, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown podcast %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func findPodcastID(ctx context.Context, lib storage.Library, name string) (core.ID, error) {
	listings, err := lib.ListPodcasts(ctx)
	if err != nil {
		return 0, err
	}
	for _, listing := range listings {
		if listing.Podcast.Name == name {
			return listing.Podcast.Id, nil
		}
	}
	return 0, fmt.Errorf("unknown podcast %q", name)
}

// formatTimestamp renders seconds as m:ss for display.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
