package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records persisted by the badger backend.
// Fields are written in declaration order; timestamps are stored as
// microseconds since the Unix epoch and decode to UTC.
var (
	IDMUS         = idMUS{}
	PodcastMUS    = podcastMUS{}
	EpisodeMUS    = episodeMUS{}
	SegmentMUS    = segmentMUS{}
	CheckpointMUS = checkpointMUS{}

	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
	timeMUS   = timeMicroMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMicroMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type podcastMUS struct{}

func (podcastMUS) Marshal(p Podcast, bs []byte) (n int) {
	n = IDMUS.Marshal(p.Id, bs)
	n += ord.String.Marshal(p.Name, bs[n:])
	n += timeMUS.Marshal(p.InsertedAt, bs[n:])
	return n
}

func (podcastMUS) Unmarshal(bs []byte) (p Podcast, n int, err error) {
	var n1 int
	p.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	p.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (podcastMUS) Size(p Podcast) int {
	return IDMUS.Size(p.Id) + ord.String.Size(p.Name) + timeMUS.Size(p.InsertedAt)
}

type episodeMUS struct{}

func (episodeMUS) Marshal(e Episode, bs []byte) (n int) {
	n = IDMUS.Marshal(e.Id, bs)
	n += IDMUS.Marshal(e.PodcastId, bs[n:])
	n += ord.String.Marshal(e.Title, bs[n:])
	n += timeMUS.Marshal(e.InsertedAt, bs[n:])
	return n
}

func (episodeMUS) Unmarshal(bs []byte) (e Episode, n int, err error) {
	var n1 int
	e.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	e.PodcastId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (episodeMUS) Size(e Episode) int {
	return IDMUS.Size(e.Id) + IDMUS.Size(e.PodcastId) +
		ord.String.Size(e.Title) + timeMUS.Size(e.InsertedAt)
}

type segmentMUS struct{}

func (segmentMUS) Marshal(s Segment, bs []byte) (n int) {
	n = IDMUS.Marshal(s.Id, bs)
	n += IDMUS.Marshal(s.EpisodeId, bs[n:])
	n += ord.String.Marshal(s.Text, bs[n:])
	n += raw.Float64.Marshal(s.StartTime, bs[n:])
	n += raw.Float64.Marshal(s.EndTime, bs[n:])
	n += vectorMUS.Marshal(s.Vector, bs[n:])
	return n
}

func (segmentMUS) Unmarshal(bs []byte) (s Segment, n int, err error) {
	var n1 int
	s.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	s.EpisodeId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.StartTime, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.EndTime, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (segmentMUS) Size(s Segment) int {
	return IDMUS.Size(s.Id) + IDMUS.Size(s.EpisodeId) +
		ord.String.Size(s.Text) +
		raw.Float64.Size(s.StartTime) + raw.Float64.Size(s.EndTime) +
		vectorMUS.Size(s.Vector)
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(c Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(c.ProcessorType, bs)
	n += IDMUS.Marshal(c.LastId, bs[n:])
	n += varint.Uint64.Marshal(c.Processed, bs[n:])
	n += timeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (checkpointMUS) Unmarshal(bs []byte) (c Checkpoint, n int, err error) {
	var n1 int
	c.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	c.LastId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Processed, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (checkpointMUS) Size(c Checkpoint) int {
	return ord.String.Size(c.ProcessorType) + IDMUS.Size(c.LastId) +
		varint.Uint64.Size(c.Processed) + timeMUS.Size(c.UpdatedAt)
}
