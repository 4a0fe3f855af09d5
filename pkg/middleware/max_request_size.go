package middleware

import (
	"net/http"

	httputil "resbook/pkg/http"
)

// MaxRequestSize caps the request body. Reads past the limit fail inside the
// handler's decoder, which surfaces as a normal bad request instead of an
// unbounded buffer.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				_ = httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
					Error: "Request body too large",
				})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
