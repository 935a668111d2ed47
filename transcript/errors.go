package transcript

import "errors"

var (
	// ErrNoTranscript indicates a transcription result with neither
	// paragraphs nor utterances.
	ErrNoTranscript = errors.New("no transcript data found in transcription result")
)
