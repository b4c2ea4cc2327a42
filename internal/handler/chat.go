package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/internal/conversation"
	"github.com/sahana-ai/assistant-platform/internal/middleware"
	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/internal/service"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// ChatHandler handles the message log and conversational turns.
type ChatHandler struct {
	turns  *service.TurnService
	conv   *conversation.Store
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(turns *service.TurnService, conv *conversation.Store, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		turns:  turns,
		conv:   conv,
		logger: log,
	}
}

// List handles GET /api/v1/messages
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages:     h.conv.List(username),
		LastSequence: h.conv.LastSequence(username),
	})
}

// Send handles POST /api/v1/messages. Runs one conversational turn.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := middleware.GetUsername(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.turns.Run(ctx, username, req.Text, req.Speak)
	if err != nil {
		if errors.Is(err, service.ErrTurnInFlight) {
			writeError(w, http.StatusConflict, "a turn is already in flight")
			return
		}
		h.logger.Error("turn execution failed",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to run turn")
		return
	}

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{Message: &msg})
}
