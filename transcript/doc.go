// Package transcript defines the transcription result shape returned by the
// speech-to-text provider and turns it into ordered text spans suitable for
// embedding.
//
// A result carries two alternative representations of the same audio:
// paragraphs grouped into sentences, and flat utterances. Segmentation
// prefers paragraphs because they follow semantic boundaries, and falls
// back to utterances when the provider omits paragraph formatting. A result
// with neither representation cannot be ingested.
package transcript
