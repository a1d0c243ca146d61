package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/edgefit-be/internal/llm"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeServiceError maps a service error to its HTTP status and a short message.
// Internal details only go to the log.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "Username already taken")
	case errors.Is(err, models.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Chat is not available")
	case errors.Is(err, llm.ErrUpstream), errors.Is(err, llm.ErrEmptyCompletion):
		writeError(w, http.StatusBadGateway, "Chat provider error")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
