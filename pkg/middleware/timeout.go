package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	httputil "resbook/pkg/http"
)

// guardedWriter suppresses handler writes that race the timeout response.
type guardedWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	started  bool
}

func (gw *guardedWriter) WriteHeader(code int) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if gw.timedOut || gw.started {
		return
	}
	gw.started = true
	gw.ResponseWriter.WriteHeader(code)
}

func (gw *guardedWriter) Write(b []byte) (int, error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if gw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	gw.started = true
	return gw.ResponseWriter.Write(b)
}

// claim marks the response timed out and reports whether the timeout owns
// it. It reports false when the handler already started writing, in which
// case the connection is left alone.
func (gw *guardedWriter) claim() bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	gw.timedOut = true
	return !gw.started
}

// RequestTimeout bounds every request. A handler that overruns has its
// context cancelled and the client gets a 503, unless bytes already went
// out on the wire.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.claim() {
					_ = httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{
						Error: "Request timed out",
					})
				}
			}
		})
	}
}
