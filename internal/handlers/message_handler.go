package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

type MessageHandler struct {
	messaging *services.MessagingService
}

func NewMessageHandler(messaging *services.MessagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	conversations := h.messaging.List(sessionID, r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(conversations))
}

func (h *MessageHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	var req models.OpenConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	conversation := h.messaging.Open(sessionID, &req)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(conversation))
}

func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	detail, err := h.messaging.Get(sessionID, chi.URLParam(r, "conversationId"))
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Conversation not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load conversation"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(detail))
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	msg, err := h.messaging.Send(sessionID, chi.URLParam(r, "conversationId"), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
				"content": "Message cannot be empty",
			}))
		case errors.Is(err, services.ErrConversationNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Conversation not found"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send message"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(msg))
}
