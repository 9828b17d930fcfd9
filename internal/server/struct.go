package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manualiq/manualiq-go/internal/display"
	"github.com/manualiq/manualiq-go/internal/search"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// ChatTimeout bounds a single /api/chat request end to end, including
	// model streaming. Defaults to 5 minutes if zero.
	ChatTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry is where server metrics are registered. Defaults to
	// prometheus.DefaultRegisterer. Tests inject a fresh registry.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
	// CatalogChunks is the number of catalog chunks loaded at startup,
	// exported as a gauge. The catalog loads once per process so a static
	// value is accurate.
	CatalogChunks int
}

// querier is the interface handleChat calls to stream a response.
// *agent.ManualAgent satisfies it; tests inject a fake.
type querier interface {
	// Query streams the agent response for userMessage to w, scoped to the
	// conversation identified by sessionID.
	Query(ctx context.Context, userMessage, sessionID string, w io.Writer) error
}

// searcher is the interface handleSearch calls to rank catalog chunks.
// *search.Engine satisfies it; tests inject a fake.
type searcher interface {
	// Search ranks the catalog against the natural language query.
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Server is the HTTP server that exposes the manual assistant.
type Server struct {
	// querier streams agent responses for /api/chat; set to the agent in
	// production, overridden by a fake in tests.
	querier querier
	// searcher ranks catalog chunks for /api/search.
	searcher searcher
	// displays is the queue of pending document display commands drained
	// by GET /api/events.
	displays *display.Queue
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus metrics owned by this server instance.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Message is the user's natural language question.
	Message string `json:"message"`
	// SessionID scopes conversation history. Defaults to "default" if empty.
	SessionID string `json:"sessionId"`
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural language search query.
	Query string `json:"query"`
}

// searchResponse is the JSON response for POST /api/search.
type searchResponse struct {
	// Query echoes the query that was ranked.
	Query string `json:"query"`
	// Results is the ranked document list, best match first.
	Results []search.Result `json:"results"`
	// Count is len(Results).
	Count int `json:"count"`
}
