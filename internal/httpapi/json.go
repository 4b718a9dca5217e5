package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// toJSON writes v as a JSON response. An encode failure can only be logged
// here: the status line is already on the wire.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}
