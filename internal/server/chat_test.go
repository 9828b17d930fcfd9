package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manualiq/manualiq-go/internal/display"
	"github.com/manualiq/manualiq-go/internal/search"
)

// ---------------------------------------------------------------------------
// Fakes shared across server tests
// ---------------------------------------------------------------------------

// fakeQuerier implements the querier interface for tests.
// It writes a fixed response to the writer and records the session it saw.
type fakeQuerier struct {
	// response is written verbatim to the writer on each Query call.
	response string
	// err is returned as the error value.
	err error
	// gotSession records the sessionID passed to the last Query call.
	gotSession string
}

func (f *fakeQuerier) Query(_ context.Context, _, sessionID string, w io.Writer) error {
	f.gotSession = sessionID
	if f.err != nil {
		return f.err
	}
	_, _ = fmt.Fprint(w, f.response)
	return nil
}

// fakeSearcher implements the searcher interface for tests.
type fakeSearcher struct {
	// results is returned from each Search call.
	results []search.Result
	// err is returned as the error value.
	err error
}

func (f *fakeSearcher) Search(_ context.Context, _ string) ([]search.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// newTestServer builds a *Server with fakes and an isolated metrics registry.
func newTestServer() *Server {
	q := display.NewQueue(8)
	return &Server{
		querier:  &fakeQuerier{},
		searcher: &fakeSearcher{},
		displays: q,
		cfg:      &Config{ChatTimeout: time.Minute},
		log:      slog.Default(),
		metrics:  newServerMetrics(prometheus.NewRegistry(), q.Len),
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — validation error paths (no agent needed)
// ---------------------------------------------------------------------------

func TestHandleChat_MissingMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"sessionId":"kitchen"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — happy path (fake querier, SSE response)
// ---------------------------------------------------------------------------

// TestHandleChat_Success verifies that a valid request produces an SSE stream
// with a "done" event. httptest.ResponseRecorder implements http.Flusher so
// the handler's flusher check passes without a real connection.
func TestHandleChat_Success(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.querier = &fakeQuerier{response: "The dishwasher filter is under the lower rack."}

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"how do I clean the dishwasher filter"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	body := w.Body.String()

	if !strings.Contains(body, "data: The dishwasher filter is under the lower rack.") {
		t.Errorf("expected streamed response in body, got: %s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("expected SSE done event in body, got: %s", body)
	}
	if !strings.Contains(body, "[DONE]") {
		t.Errorf("expected [DONE] sentinel in body, got: %s", body)
	}
}

// TestHandleChat_DefaultSession verifies that an empty sessionId falls back
// to "default" before reaching the agent.
func TestHandleChat_DefaultSession(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{response: "ok"}
	s := newTestServer()
	s.querier = q

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	s.handleChat(httptest.NewRecorder(), req)

	if q.gotSession != "default" {
		t.Errorf("expected session %q, got %q", "default", q.gotSession)
	}
}

// TestHandleChat_AgentError verifies that when the querier returns an error,
// the SSE stream includes an "error" event and the response is still 200
// (SSE errors are delivered in-band, not via HTTP status).
func TestHandleChat_AgentError(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.querier = &fakeQuerier{err: fmt.Errorf("LLM unavailable")}

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("expected error event in body, got: %s", body)
	}
	if !strings.Contains(body, "LLM unavailable") {
		t.Errorf("expected error message in body, got: %s", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("did not expect done event after error, got: %s", body)
	}
}

// TestSSEWriter_MultiLine verifies that multi-line chunks are prefixed with
// "data: " per line so the SSE frame boundary is preserved.
func TestSSEWriter_MultiLine(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sw := &sseWriter{w: w, flusher: w}

	if _, err := sw.Write([]byte("line one\nline two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "data: line one\ndata: line two\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
