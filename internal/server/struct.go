package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/askdoc/askdoc-go/internal/pipeline"
	"github.com/askdoc/askdoc-go/internal/store"
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
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
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
	// History receives a record of every successfully processed query.
	// If nil, history recording is disabled.
	History store.HistoryStore
	// MetricsRegistry is the Prometheus registry backing GET /metrics.
	// If nil, a fresh registry is created per server instance.
	MetricsRegistry *prometheus.Registry
}

// processor is the interface the query handlers call. *pipeline.Pipeline
// satisfies it; tests inject a fake.
type processor interface {
	// ProcessQuery answers query against sourceText.
	ProcessQuery(ctx context.Context, sourceText, query string) (*pipeline.Result, error)
	// UpdatePrompts applies a partial prompt template update and returns
	// the resulting snapshot.
	UpdatePrompts(o pipeline.PromptOverride) pipeline.PromptSet
}

// Server is the HTTP server that wraps the query pipeline.
type Server struct {
	// proc handles all query processing; set to the pipeline in production,
	// overridden by a fake in tests.
	proc processor
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// history receives processed-query records; nil disables recording.
	history store.HistoryStore
	// metrics holds the Prometheus instruments owned by this instance.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// SourceText is the document to index and answer from.
	SourceText string `json:"sourceText"`
	// Query is the question to answer.
	Query string `json:"query"`
}

// queryResponse is the JSON response for POST /api/query.
type queryResponse struct {
	// Answer is the generated answer, or the fallback text.
	Answer string `json:"answer"`
	// Category is the topic label assigned to the query.
	Category string `json:"category"`
}

// promptsRequest is the JSON body for PUT /api/prompts. Empty fields keep
// the current template.
type promptsRequest struct {
	// Classification replaces the classification template when non-empty.
	Classification string `json:"classification,omitempty"`
	// Response replaces the response template when non-empty.
	Response string `json:"response,omitempty"`
}

// promptsResponse is the JSON response for PUT /api/prompts: the template
// snapshot now in effect.
type promptsResponse struct {
	Classification string `json:"classification"`
	Response       string `json:"response"`
}

// errorResponse is the JSON body for error replies.
type errorResponse struct {
	// Error is a human-readable description of what went wrong.
	Error string `json:"error"`
}
