package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"emergency-response/internal/config"
	"emergency-response/internal/models"
)

// CompletionBackend turns a conversation into the assistant's next message.
// Errors wrapping *transportError mean the backend could not be reached or
// refused the request; any other error means its answer was unusable.
type CompletionBackend interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaClient talks to an Ollama server's /api/chat endpoint.
type OllamaClient struct {
	endpoint string
	model    string
	httpDo   *http.Client
}

func NewOllamaClient(cfg config.BackendConfig) *OllamaClient {
	return &OllamaClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/api/chat",
		model:    cfg.Model,
		httpDo: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *OllamaClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	data, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", &transportError{err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &transportError{err: fmt.Errorf("%d %s for url: %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), c.endpoint, strings.TrimSpace(string(snippet)))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &transportError{err: err}
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode Ollama response: %w", err)
	}
	if out.Message == nil {
		return "", nil
	}
	return out.Message.Content, nil
}
