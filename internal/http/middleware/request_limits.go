package middleware

import (
	"net/http"

	"github.com/tendant/tenantgate/internal/httputil"
)

// RequestSizeLimit rejects bodies larger than maxBytes. A declared
// Content-Length over the limit is refused up front with 413; bodies of
// unknown length are capped while the handler reads them. Zero disables
// the limit.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
