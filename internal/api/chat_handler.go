package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/milinea/milinea-backend/internal/api/respond"
	"github.com/milinea/milinea-backend/internal/chat"
	"github.com/milinea/milinea-backend/internal/model"
)

// ChatHandler handles the conversational endpoint (thin transport layer).
type ChatHandler struct {
	svc *chat.Service
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// HandleChat handles POST /chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	resp, err := h.svc.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		log.Error().Stack().Err(err).Msg("chat request failed")
		respond.WriteInternalError(w, "internal error")
		return
	}

	respond.WriteJSON(w, http.StatusOK, resp)
}
