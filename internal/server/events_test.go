package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/manualiq/manualiq-go/internal/display"
)

// TestHandleEvents_StreamsQueuedCommand verifies that a queued display
// command is delivered as an SSE "display" event with the exact wire format
// viewers parse.
func TestHandleEvents_StreamsQueuedCommand(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	if err := s.displays.Enqueue(display.ShowDocument("001.pdf", 5)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	// handleEvents blocks until the client disconnects; the context timeout
	// stands in for the disconnect.
	s.handleEvents(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: display") {
		t.Fatalf("expected display event, got: %s", body)
	}
	want := `{"mime_type":"application/json","data":{"command":"show_document","params":[{"filename":"001.pdf","page_number":5}]}}`
	if !strings.Contains(body, "data: "+want) {
		t.Errorf("expected wire payload %s in body, got: %s", want, body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: expected text/event-stream, got %q", ct)
	}
}

// TestHandleEvents_EmptyQueueClosesOnDisconnect verifies that a stream with
// no queued commands simply returns when the client goes away.
func TestHandleEvents_EmptyQueueClosesOnDisconnect(t *testing.T) {
	t.Parallel()

	s := newTestServer()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.handleEvents(w, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleEvents did not return after context cancellation")
	}

	if strings.Contains(w.Body.String(), "event: display") {
		t.Errorf("expected no display events, got: %s", w.Body.String())
	}
}
