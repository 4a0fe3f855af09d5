package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "resbook/pkg/errors"
	httputil "resbook/pkg/http"
	"resbook/pkg/logger"
)

// Recovery turns handler panics into structured 500 responses. The stack
// goes to the log, never to the caller.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := RequestIDFromContext(r.Context())
					log.Error("Panic recovered",
						"request_id", requestID,
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					if writeErr := httputil.WriteError(w, apperrors.Internal("Internal server error", nil)); writeErr != nil {
						log.Error("failed to write panic response", "request_id", requestID, "error", writeErr)
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
