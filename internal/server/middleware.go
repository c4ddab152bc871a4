package server

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/askdoc/askdoc-go/internal/logging"
)

// requestLogger tags every inbound request with a request_id, places a child
// [*slog.Logger] carrying it into the request context (handlers retrieve it
// via logging.FromContext), and emits one completion line with status, size,
// and latency. Server-side failures are logged at WARN so a query call that
// 502s on an upstream provider stands out from normal traffic.
func requestLogger(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := base.With(
			slog.String("request_id", newRequestID()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), log)))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "request completed",
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// statusRecorder wraps [http.ResponseWriter] to capture the status code and
// response size for the completion log line and the HTTP metrics.
type statusRecorder struct {
	http.ResponseWriter
	// status is the HTTP status code sent to the client.
	status int
	// bytes counts the response body bytes written.
	bytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// newRequestID returns an 8-byte random hex string. The zero-filled fallback
// only matters if the system entropy source is broken.
func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}
