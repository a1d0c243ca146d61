package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles the authenticated chat endpoints.
type ChatHandler struct {
	service services.ChatServiceProvider
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service services.ChatServiceProvider) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatPayload is the body of a chat request.
type ChatPayload struct {
	Prompt string `json:"prompt" validate:"required,max=8000"`
}

// ChatResponse carries the model's answer.
type ChatResponse struct {
	Response string `json:"response"`
}

// SavePayload is the body of a save request.
type SavePayload struct {
	Prompt   string `json:"prompt" validate:"required,max=8000"`
	Response string `json:"response" validate:"required,max=32000"`
}

// Chat proxies a prompt to the LLM.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var payload ChatPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	response, err := h.service.Chat(r.Context(), username, payload.Prompt)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Chat completion failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: response})
}

// Save stores a prompt/response pair.
func (h *ChatHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload SavePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.SaveInteraction(r.Context(), payload.Prompt, payload.Response); err != nil {
		log.Error().Err(err).Msg("Failed to save interaction")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Saved to database"})
}

// History returns the caller's recent chat records.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultHistoryLimit
	}

	records, err := h.service.History(r.Context(), username, limit)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to retrieve chat history")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if msg, ok := validatePayload(dst); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return false
	}
	return true
}
