// Package openai implements llm.Client using the OpenAI Chat Completions
// API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cvreview-backend/internal/llm"
	"cvreview-backend/internal/logger"
)

const (
	defaultAPIURL    = "https://api.openai.com/v1/chat/completions"
	maxUpstreamInLog = 300
)

// Client calls the OpenAI Chat Completions endpoint.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a Client. The HTTP timeout defaults to 120s and can
// be overridden with OPENAI_TIMEOUT_SECONDS.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	apiURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat performs one completion call. When the strict JSON response format
// is rejected with a client-error status, the call is retried once without
// the structured-output constraint; any failure after that is terminal.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResult, error) {
	result, err := c.chatOnce(ctx, req.Messages, req.StrictJSON)
	if err == nil || !req.StrictJSON {
		return result, err
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) && statusErr.IsClientError() {
		return c.chatOnce(ctx, req.Messages, false)
	}
	return llm.ChatResult{}, err
}

func (c *Client) chatOnce(ctx context.Context, messages []llm.Message, strictJSON bool) (llm.ChatResult, error) {
	temp := float32(0)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    reqMessages,
		Temperature: &temp,
	}
	if strictJSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.ChatResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.ChatResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.ChatResult{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return llm.ChatResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.ChatResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return llm.ChatResult{}, &llm.StatusError{
			Status: resp.StatusCode,
			Body:   logger.TruncateForLog(string(body), maxUpstreamInLog),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.ChatResult{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.ChatResult{}, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return llm.ChatResult{}, fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.ChatResult{}, fmt.Errorf("openai response empty content")
	}

	result := llm.ChatResult{Text: content}
	if parsed.Usage != nil {
		result.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	return result, nil
}

var _ llm.Client = (*Client)(nil)
