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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPodcast indicates a Podcast failed validation.
	ErrInvalidPodcast = errors.New("invalid podcast")

	// ErrInvalidEpisode indicates an Episode failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrEmptyPodcastName indicates the podcast Name field is empty.
	ErrEmptyPodcastName = errors.New("podcast name cannot be empty")

	// ErrEmptyEpisodeTitle indicates the episode Title field is empty.
	ErrEmptyEpisodeTitle = errors.New("episode title cannot be empty")

	// ErrEmptySegmentText indicates the segment Text field is empty.
	ErrEmptySegmentText = errors.New("segment text cannot be empty")

	// ErrInvalidTimeRange indicates a segment ends before it starts.
	ErrInvalidTimeRange = errors.New("segment end time precedes start time")
)
