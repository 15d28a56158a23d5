package services

import (
	"context"
	"errors"
	"strings"

	"emergency-response/internal/models"
)

const (
	unauthorizedMessage     = "Unauthorized"
	messageRequiredMessage  = "Message is required"
	backendUnreachableMsg   = "Failed to reach backend server. Is it running on this machine?"
	unexpectedErrorMessage  = "Unexpected error while generating response."
	EmptyModelReplyFallback = "The model returned an empty response."
)

// ChatService proxies a single user message to the completion backend and
// normalizes whatever comes back. Each call is one best-effort round trip.
type ChatService struct {
	backend CompletionBackend
}

func NewChatService(backend CompletionBackend) *ChatService {
	return &ChatService{backend: backend}
}

func (s *ChatService) Chat(ctx context.Context, session *models.Session, req models.ChatRequest) (*models.ChatResponse, error) {
	if session == nil {
		return nil, &UnauthorizedError{Message: unauthorizedMessage}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &ValidationError{Message: messageRequiredMessage}
	}

	reply, err := s.backend.Complete(ctx, []models.ChatMessage{
		{Role: "user", Content: message},
	})
	if err != nil {
		var te *transportError
		if errors.As(err, &te) {
			return nil, &BackendUnreachableError{Message: backendUnreachableMsg, Details: te.Error()}
		}
		return nil, &InternalError{Message: unexpectedErrorMessage, Details: err.Error()}
	}

	if reply == "" {
		reply = EmptyModelReplyFallback
	}
	return &models.ChatResponse{Reply: reply}, nil
}
