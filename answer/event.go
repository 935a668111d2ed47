package answer

import (
	"encoding/json"
	"io"
)

// Event types on the answer stream.
const (
	EventTypeResults = "results"
	EventTypeAnswer  = "claude_response"
)

// Event is one frame of the answer stream. Results events carry the
// search results that ground the answer; answer events carry a chunk of
// generated text.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Writer frames events as newline-delimited JSON on an io.Writer.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates an event writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// WriteEvent writes one event followed by a newline.
func (w *Writer) WriteEvent(event Event) error {
	return w.enc.Encode(event)
}
