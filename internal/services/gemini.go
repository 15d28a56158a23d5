package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"emergency-response/internal/models"
)

// GeminiBackend answers chat messages with Google's Gemini API instead of a
// local Ollama server.
type GeminiBackend struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiBackend creates a Gemini-backed CompletionBackend. Every call is
// bounded by timeout.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)

	return &GeminiBackend{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiBackend) Close() {
	g.client.Close()
}

func (g *GeminiBackend) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	history, last := splitHistory(messages)
	if last == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cs := g.model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return "", &transportError{err: fmt.Errorf("Gemini API error: %w", err)}
	}
	return extractText(resp), nil
}

// splitHistory converts all but the final message into Gemini chat history
// and returns the final message as the prompt. Gemini calls the assistant
// role "model".
func splitHistory(messages []models.ChatMessage) ([]*genai.Content, genai.Part) {
	if len(messages) == 0 {
		return nil, nil
	}

	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return history, genai.Text(messages[len(messages)-1].Content)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
