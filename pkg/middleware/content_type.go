package middleware

import (
	"mime"
	"net/http"

	httputil "resbook/pkg/http"
	"resbook/pkg/logger"
)

// ContentTypeValidation rejects bodied requests that do not declare JSON.
// Reads and deletes pass through untouched.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				header := r.Header.Get("Content-Type")
				mediaType, _, err := mime.ParseMediaType(header)
				if err != nil || mediaType != "application/json" {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestIDFromContext(r.Context()),
						"content_type", header,
						"path", r.URL.Path,
						"method", r.Method,
					)
					if writeErr := httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
						Error: "Content-Type must be application/json",
					}); writeErr != nil {
						log.Error("failed to write content type response", "error", writeErr)
					}
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
