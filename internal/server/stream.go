package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"book-chat/internal/conversation"
)

// wireEvent is the JSON shape of one outbound stream record.
type wireEvent struct {
	Content   string                           `json:"content,omitempty"`
	Done      bool                             `json:"done"`
	SessionID string                           `json:"sessionId,omitempty"`
	Metadata  *conversation.CompletionMetadata `json:"metadata,omitempty"`
	Error     string                           `json:"error,omitempty"`
}

// ndjsonStream writes newline-delimited JSON event records to an HTTP
// response, flushing after every record so fragments reach the client as
// they are generated.
type ndjsonStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newNDJSONStream(w http.ResponseWriter) *ndjsonStream {
	flusher, _ := w.(http.Flusher)
	return &ndjsonStream{w: w, flusher: flusher}
}

// Send writes one event record. The response headers are committed on the
// first record.
func (s *ndjsonStream) Send(ctx context.Context, event conversation.StreamEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !s.started {
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	record := wireEvent{
		Content:   event.Content,
		Done:      event.Done,
		SessionID: event.SessionID,
		Metadata:  event.Metadata,
		Error:     event.Error,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}
	if _, err := s.w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write stream event: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Started reports whether any record has been written yet.
func (s *ndjsonStream) Started() bool {
	return s.started
}

var _ conversation.Stream = (*ndjsonStream)(nil)
