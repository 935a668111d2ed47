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


package storage

import (
	"github.com/poiesic/audiomind/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalPodcast serializes a Podcast to bytes.
func MarshalPodcast(podcast *core.Podcast) []byte {
	buf := make([]byte, core.PodcastMUS.Size(*podcast))
	core.PodcastMUS.Marshal(*podcast, buf)
	return buf
}

// UnmarshalPodcast deserializes a Podcast from bytes.
func UnmarshalPodcast(data []byte) (*core.Podcast, error) {
	podcast, _, err := core.PodcastMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &podcast, nil
}

// MarshalEpisode serializes an Episode to bytes.
func MarshalEpisode(episode *core.Episode) []byte {
	buf := make([]byte, core.EpisodeMUS.Size(*episode))
	core.EpisodeMUS.Marshal(*episode, buf)
	return buf
}

// UnmarshalEpisode deserializes an Episode from bytes.
func UnmarshalEpisode(data []byte) (*core.Episode, error) {
	episode, _, err := core.EpisodeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &episode, nil
}

// MarshalSegment serializes a Segment to bytes.
func MarshalSegment(segment *core.Segment) []byte {
	buf := make([]byte, core.SegmentMUS.Size(*segment))
	core.SegmentMUS.Marshal(*segment, buf)
	return buf
}

// UnmarshalSegment deserializes a Segment from bytes.
func UnmarshalSegment(data []byte) (*core.Segment, error) {
	segment, _, err := core.SegmentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := make([]byte, core.CheckpointMUS.Size(*checkpoint))
	core.CheckpointMUS.Marshal(*checkpoint, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, _, err := core.CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}
