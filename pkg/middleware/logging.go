package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"resbook/pkg/logger"
)

type contextKey string

// RequestIDKey is the context key under which RequestLogging stores the
// request ID for the rest of the middleware chain and the handlers.
const RequestIDKey contextKey = "request_id"

// RequestIDHeader names the header an upstream proxy may use to hand us a
// correlation ID. The same header carries the ID back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the ID stamped by RequestLogging, or ""
// when the middleware did not run.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// statusRecorder captures the status code for the completion log line.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	started bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.started {
		return
	}
	sr.status = status
	sr.started = true
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.started {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// RequestLogging assigns each request an ID, echoes it on the response,
// and logs the request once it completes.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = newRequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))

			log.Debug("HTTP request started",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			log.Info("HTTP request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func newRequestID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
