// Package answer generates streamed, grounded answers to questions about
// ingested podcasts.
//
// The Streamer takes the search results for a query, sends them to the
// caller as the first stream event, then streams the generated answer
// chunk by chunk. Answers are produced strictly from the supplied
// excerpts. Completed answers are cached; a repeat of the same question
// over the same excerpts replays the cached text in small chunks instead
// of calling the model again.
package answer
