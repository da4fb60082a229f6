package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON encodes v to the response with the given status. Encoding
// failures happen after the header is sent, so they can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response", slog.String("error", err.Error()))
	}
}

// errResponse is the uniform error body for every non-2xx API response.
type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
