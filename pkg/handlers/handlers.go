// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes a JSON error response. Server
// errors respond with the generic status text; the error chain for a 5xx
// can carry storage keys and driver detail, and that stays in the log.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		RespondJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	logger.Warn("request rejected", "status", status, "error", err)
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}
