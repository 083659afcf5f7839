package middleware

import (
	"mime"
	"net/http"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/logger"
)

func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				if contentType := extractContentType(r.Header.Get("Content-Type")); contentType != "application/json" {
					log.ForContext(r.Context()).Warn("Invalid Content-Type header",
						"content_type", contentType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					apperrors.WriteError(w, apperrors.New(
						apperrors.CodeBadRequest,
						"Content-Type must be application/json",
						http.StatusUnsupportedMediaType,
					))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresContentType exempts bodiless action endpoints such as confirm.
func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}

func extractContentType(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mediaType
}
