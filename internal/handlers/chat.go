package handlers

import (
	"encoding/json"
	"net/http"

	"emergency-response/internal/middleware"
	"emergency-response/internal/models"
	"emergency-response/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is treated as a missing message.
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = models.ChatRequest{}
	}

	resp, err := h.chatService.Chat(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
