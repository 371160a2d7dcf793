// Package llm abstracts the chat-completion backend used for CV reviews.
package llm

import (
	"context"
	"fmt"
)

// Message is one chat message sent to the backend.
type Message struct {
	Role    string
	Content string
}

// Usage carries token accounting reported by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatRequest is one completion call. StrictJSON asks the backend to
// constrain output to a JSON object where the provider supports it.
type ChatRequest struct {
	Messages   []Message
	StrictJSON bool
}

// ChatResult is the raw completion text plus usage accounting.
type ChatResult struct {
	Text  string
	Usage Usage
}

// Client is implemented by model backends.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResult, error)
}

// StatusError reports a non-success HTTP status from the backend. Body is
// truncated before storage so raw upstream payloads never propagate.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm backend status %d: %s", e.Status, e.Body)
}

// IsClientError reports whether the status is in the 4xx class.
func (e *StatusError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}
