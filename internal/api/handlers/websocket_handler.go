package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/services"
	ws "github.com/isdelr/edgefit-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024
	// Idle connections are dropped after this long without a message.
	idleTimeout = 5 * time.Minute
	writeWait   = 10 * time.Second
	// Upper bound for one completion round trip.
	chatTimeout = 90 * time.Second
)

// WebSocketHandler serves chat over a websocket for authenticated users.
type WebSocketHandler struct {
	service  services.ChatServiceProvider
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Only browser origins in
// allowedOrigins may open a socket; requests without an Origin header pass.
func NewWebSocketHandler(service services.ChatServiceProvider, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &WebSocketHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Serve upgrades the connection and answers chat messages until the client leaves.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	log.Info().Str("username", username).Msg("Chat socket connected")
	conn.SetReadLimit(maxMessageSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to set websocket read deadline")
			return
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("username", username).Msg("Chat socket closed unexpectedly")
			}
			log.Info().Str("username", username).Msg("Chat socket disconnected")
			return
		}

		reply, err := h.handleIncomingWSMessage(r.Context(), username, message)
		if err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to encode websocket reply")
			return
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to set websocket write deadline")
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to write websocket message")
			return
		}
	}
}

// handleIncomingWSMessage processes one client message and returns the encoded reply.
func (h *WebSocketHandler) handleIncomingWSMessage(ctx context.Context, username string, message []byte) ([]byte, error) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Str("username", username).Msg("Error decoding websocket message")
		return ws.NewErrorMessage("Invalid message")
	}

	switch msg.Action {
	case ws.ActionChat:
		var payload ws.ChatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || strings.TrimSpace(payload.Prompt) == "" {
			return ws.NewErrorMessage("Invalid or empty prompt in payload")
		}

		ctx, cancel := context.WithTimeout(ctx, chatTimeout)
		defer cancel()

		response, err := h.service.Chat(ctx, username, payload.Prompt)
		if err != nil {
			log.Error().Err(err).Str("username", username).Msg("Chat completion failed")
			return ws.NewErrorMessage("Chat request failed")
		}
		return ws.NewChatResponseMessage(response)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		return ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
}
