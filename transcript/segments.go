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


package transcript

import "strings"

// Result is a transcription payload. Only the fields the segmenter
// consumes are decoded.
type Result struct {
	Results Results `json:"results"`
}

// Results holds the per-channel alternatives and the flat utterance list.
type Results struct {
	Channels   []Channel   `json:"channels"`
	Utterances []Utterance `json:"utterances"`
}

// Channel is one audio channel of the transcription.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one candidate transcription of a channel.
type Alternative struct {
	Transcript string      `json:"transcript"`
	Paragraphs *Paragraphs `json:"paragraphs"`
}

// Paragraphs wraps the paragraph list of an alternative.
type Paragraphs struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is a group of sentences sharing a semantic boundary.
type Paragraph struct {
	Sentences []Sentence `json:"sentences"`
}

// Sentence is one sentence with its time bounds in seconds.
type Sentence struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Utterance is one contiguous stretch of speech.
type Utterance struct {
	Transcript string  `json:"transcript"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Span is one transcript segment: contiguous text with its time bounds
// in seconds.
type Span struct {
	Text  string
	Start float64
	End   float64
}

// Segments extracts ordered spans from a transcription result.
//
// Paragraphs from the first alternative of the first channel are preferred:
// each paragraph becomes one span whose text is its sentence texts joined by
// a single space, bounded by the first sentence's start and the last
// sentence's end. When no paragraphs are present, each utterance becomes one
// span. A result with neither returns ErrNoTranscript.
//
// Segments is a pure function of its input; calling it twice yields the
// same spans.
func Segments(res *Result) ([]Span, error) {
	if res == nil {
		return nil, ErrNoTranscript
	}

	if paragraphs := firstParagraphs(res); len(paragraphs) > 0 {
		spans := make([]Span, 0, len(paragraphs))
		for _, p := range paragraphs {
			span, ok := paragraphSpan(p)
			if ok {
				spans = append(spans, span)
			}
		}
		if len(spans) > 0 {
			return spans, nil
		}
	}

	if utterances := res.Results.Utterances; len(utterances) > 0 {
		spans := make([]Span, 0, len(utterances))
		for _, u := range utterances {
			if u.Transcript == "" {
				continue
			}
			spans = append(spans, Span{Text: u.Transcript, Start: u.Start, End: u.End})
		}
		if len(spans) > 0 {
			return spans, nil
		}
	}

	return nil, ErrNoTranscript
}

func firstParagraphs(res *Result) []Paragraph {
	if len(res.Results.Channels) == 0 {
		return nil
	}
	alternatives := res.Results.Channels[0].Alternatives
	if len(alternatives) == 0 || alternatives[0].Paragraphs == nil {
		return nil
	}
	return alternatives[0].Paragraphs.Paragraphs
}

func paragraphSpan(p Paragraph) (Span, bool) {
	texts := make([]string, 0, len(p.Sentences))
	for _, s := range p.Sentences {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	if len(texts) == 0 {
		return Span{}, false
	}

	span := Span{Text: strings.Join(texts, " ")}
	span.Start = p.Sentences[0].Start
	span.End = p.Sentences[len(p.Sentences)-1].End
	return span, true
}
