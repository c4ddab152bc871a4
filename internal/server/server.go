// Package server implements the HTTP server that exposes the askdoc query
// pipeline via a REST API, together with health/readiness probes and a
// Prometheus metrics endpoint. The server is started by the `askdoc serve`
// CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askdoc/askdoc-go/internal/logging"
	"github.com/askdoc/askdoc-go/internal/pipeline"
	"github.com/askdoc/askdoc-go/internal/rag"
	"github.com/askdoc/askdoc-go/internal/store"
)

// New constructs a Server from the provided query processor and config.
func New(proc processor, cfg *Config) (*Server, error) {
	if proc == nil {
		return nil, fmt.Errorf("server: processor must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover chunking, embedding and two model calls.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	reg := cfg.MetricsRegistry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		proc:    proc,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		history: cfg.History,
		metrics: newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: ASKDOC_API_KEY not set — API authentication disabled")
	}

	// Protected, rate-limited API routes.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/query", protected("query", s.handleQuery))
	mux.Handle("PUT /api/prompts", protected("prompts", s.handlePrompts))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root HTTP handler. Tests drive it through
// httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleQuery handles POST /api/query. The source document is indexed and
// the query answered in a single round trip.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SourceText) == "" {
		writeError(w, http.StatusBadRequest, "sourceText is required")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	res, err := s.proc.ProcessQuery(r.Context(), req.SourceText, req.Query)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		status, msg := queryErrorStatus(err)
		log.Error("query failed", slog.Int("status", status), slog.Any("error", err))
		writeError(w, status, msg)
		return
	}

	if s.history != nil {
		rec := store.Record{Query: req.Query, Category: res.Category, Answer: res.Answer}
		if err := s.history.Append(r.Context(), rec); err != nil {
			// History is best-effort; the answer still goes out.
			log.Warn("history append failed", slog.Any("error", err))
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: res.Answer, Category: res.Category})
}

// handlePrompts handles PUT /api/prompts: a partial prompt template update.
func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	var req promptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Classification == "" && req.Response == "" {
		writeError(w, http.StatusBadRequest, "at least one of classification, response is required")
		return
	}

	got := s.proc.UpdatePrompts(pipeline.PromptOverride{
		Classification: req.Classification,
		Response:       req.Response,
	})

	logging.FromContext(r.Context()).Info("prompt templates updated",
		slog.Bool("classification", req.Classification != ""),
		slog.Bool("response", req.Response != ""),
	)

	writeJSON(w, http.StatusOK, promptsResponse{
		Classification: got.Classification,
		Response:       got.Response,
	})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryErrorStatus maps a pipeline error to an HTTP status and a safe
// client-facing message.
func queryErrorStatus(err error) (int, string) {
	var (
		cfgErr *rag.ConfigurationError
		dimErr *rag.DimensionMismatchError
	)
	switch {
	case errors.Is(err, rag.ErrEmptyInput):
		return http.StatusBadRequest, "source text is empty"
	case errors.As(err, &dimErr):
		return http.StatusConflict, dimErr.Error()
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, cfgErr.Error()
	default:
		// Embedding, vector store and chat provider failures are upstream
		// dependencies from the client's point of view.
		return http.StatusBadGateway, "upstream dependency failed"
	}
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
