package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Event names on /discover/stream
const (
	EventStep     = "step"
	EventResult   = "result"
	EventError    = "error"
	EventComplete = "complete"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes numbered Server-Sent Events. Progress callbacks may fire
// from several goroutines, so writes are serialized.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// newEventStream commits a 200 text/event-stream response
func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

// send writes one event whose data is the JSON encoding of payload
func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *eventStream) fail(message string) error {
	return s.send(EventError, map[string]string{"error": message})
}

func (s *eventStream) done(requestID, status string) error {
	return s.send(EventComplete, map[string]string{"request_id": requestID, "status": status})
}
