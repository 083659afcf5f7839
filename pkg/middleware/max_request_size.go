package middleware

import (
	"net/http"

	apperrors "fleetbook/pkg/errors"
)

// MaxRequestSize rejects declared oversize bodies up front and caps the rest
// with http.MaxBytesReader.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				apperrors.WriteError(w, apperrors.TooLarge(limit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
