package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError writes err as JSON for middleware. Encoding failures are dropped.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_ = json.NewEncoder(w).Encode(appErr.Response())
}
