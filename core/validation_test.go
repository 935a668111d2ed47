package core

import (
	"errors"
	"testing"
)

func TestValidatePodcast(t *testing.T) {
	tests := []struct {
		name    string
		podcast *Podcast
		wantErr error
	}{
		{
			name:    "valid podcast",
			podcast: &Podcast{Id: 1, Name: "Tech Talk"},
			wantErr: nil,
		},
		{
			name:    "valid podcast with ID 0",
			podcast: &Podcast{Id: 0, Name: "Tech Talk"},
			wantErr: nil,
		},
		{
			name:    "nil podcast",
			podcast: nil,
			wantErr: ErrInvalidPodcast,
		},
		{
			name:    "empty name",
			podcast: &Podcast{Id: 1, Name: ""},
			wantErr: ErrEmptyPodcastName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePodcast(tt.podcast)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePodcast() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePodcast() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEpisode(t *testing.T) {
	tests := []struct {
		name    string
		episode *Episode
		wantErr error
	}{
		{
			name:    "valid episode",
			episode: &Episode{Id: 1, PodcastId: 1, Title: "Episode 1"},
			wantErr: nil,
		},
		{
			name:    "valid episode without podcast ID",
			episode: &Episode{Title: "Episode 1"},
			wantErr: nil,
		},
		{
			name:    "nil episode",
			episode: nil,
			wantErr: ErrInvalidEpisode,
		},
		{
			name:    "empty title",
			episode: &Episode{Id: 1, PodcastId: 1, Title: ""},
			wantErr: ErrEmptyEpisodeTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEpisode(tt.episode)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEpisode() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEpisode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment *Segment
		wantErr error
	}{
		{
			name:    "valid segment",
			segment: &Segment{Text: "hello there", StartTime: 0.5, EndTime: 3.2},
			wantErr: nil,
		},
		{
			name:    "valid segment without vector",
			segment: &Segment{Text: "hello there", StartTime: 0, EndTime: 0, Vector: nil},
			wantErr: nil,
		},
		{
			name:    "zero-length time range",
			segment: &Segment{Text: "hello", StartTime: 2.0, EndTime: 2.0},
			wantErr: nil,
		},
		{
			name:    "nil segment",
			segment: nil,
			wantErr: ErrInvalidSegment,
		},
		{
			name:    "empty text",
			segment: &Segment{Text: "", StartTime: 0, EndTime: 1},
			wantErr: ErrEmptySegmentText,
		},
		{
			name:    "end before start",
			segment: &Segment{Text: "hello", StartTime: 5.0, EndTime: 1.0},
			wantErr: ErrInvalidTimeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSegment() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSegment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
