package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Podcast is a named show. Names are unique within a library; ingestion
// reuses an existing podcast with the same name rather than creating a
// duplicate.
type Podcast struct {
	Id         ID
	Name       string
	InsertedAt time.Time
}

// Episode is one ingested recording of a podcast. Titles are not unique;
// ingesting the same title twice produces two episodes.
type Episode struct {
	Id         ID
	PodcastId  ID
	Title      string
	InsertedAt time.Time
}

// Segment is a contiguous span of an episode's transcript together with
// its embedding. The segment and its vector index entry share the same Id
// and are written in the same transaction.
type Segment struct {
	Id        ID
	EpisodeId ID
	Text      string
	StartTime float64 // Seconds from the start of the audio
	EndTime   float64
	Vector    []float32
}

// SearchResult is a segment returned from nearest-neighbor search, joined
// with its episode and podcast for display. Distance is 1 - cosine
// similarity, so smaller is closer.
type SearchResult struct {
	SegmentId    ID
	EpisodeId    ID
	Text         string
	StartTime    float64
	EndTime      float64
	EpisodeTitle string
	PodcastName  string
	Distance     float32
}

// PodcastListing is a podcast with aggregate counts, as reported by the
// list operation.
type PodcastListing struct {
	Podcast      Podcast
	EpisodeCount int
	SegmentCount int
}

// EpisodeListing is an episode with its segment count.
type EpisodeListing struct {
	Episode      Episode
	SegmentCount int
}

// Checkpoint records how far a long-running processor got, so that an
// interrupted run can resume instead of starting over. ProcessorType names
// the processor ("reindex"); LastId is the last segment it finished.
type Checkpoint struct {
	ProcessorType string
	LastId        ID
	Processed     uint64
	UpdatedAt     time.Time
}
