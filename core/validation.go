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

import "fmt"

// ValidatePodcast validates a Podcast according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//
// NOT validated:
//   - ID (0 is valid until storage assigns one)
func ValidatePodcast(podcast *Podcast) error {
	if podcast == nil {
		return fmt.Errorf("%w: podcast is nil", ErrInvalidPodcast)
	}

	if podcast.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPodcast, ErrEmptyPodcastName)
	}

	return nil
}

// ValidateEpisode validates an Episode according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//
// NOT validated:
//   - PodcastId (resolved by the ingestion coordinator)
//   - ID (0 is valid until storage assigns one)
func ValidateEpisode(episode *Episode) error {
	if episode == nil {
		return fmt.Errorf("%w: episode is nil", ErrInvalidEpisode)
	}

	if episode.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyEpisodeTitle)
	}

	return nil
}

// ValidateSegment validates a Segment according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - EndTime must not precede StartTime
//
// NOT validated (populated during processing):
//   - Vector (can be empty until the embedding step runs)
//   - ID (0 is valid until storage assigns one)
func ValidateSegment(segment *Segment) error {
	if segment == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}

	if segment.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptySegmentText)
	}

	if segment.EndTime < segment.StartTime {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrInvalidTimeRange)
	}

	return nil
}
