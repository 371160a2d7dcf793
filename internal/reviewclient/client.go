// Package reviewclient consumes the AI review API, including its SSE
// streaming endpoint, and tracks suggestion state against a local document.
package reviewclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cvreview-backend/internal/review"
)

const defaultTimeout = 150 * time.Second

// Client talks to one review API base URL, e.g. "http://localhost:8080/api/v1/ai".
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New constructs a Client with a default HTTP timeout sized for model
// latency.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// APIError is a non-success JSON response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("review api status %d: %s (%s)", e.Status, e.Message, e.Code)
}

// StreamError is an in-stream error frame; the server sends it in place of
// the remaining events once the stream is already open.
type StreamError struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *StreamError) Error() string {
	if len(e.Details) == 0 {
		return "review stream failed: " + e.Message
	}
	return fmt.Sprintf("review stream failed: %s (%s)", e.Message, strings.Join(e.Details, "; "))
}

// Review runs one review synchronously. It is the fallback for callers that
// do not want progressive delivery.
func (c *Client) Review(ctx context.Context, req review.Request) (review.Response, error) {
	body, err := c.post(ctx, "/review", req, "application/json")
	if err != nil {
		return review.Response{}, err
	}
	defer body.Close()

	var resp review.Response
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return review.Response{}, fmt.Errorf("decode review response: %w", err)
	}
	return resp, nil
}

// StreamHandlers receives frames in arrival order. Nil handlers are skipped.
type StreamHandlers struct {
	OnStart      func(mode review.Mode, sectionID string)
	OnOverall    func(review.Overall)
	OnSuggestion func(review.Suggestion)
}

// Stream runs one review over the SSE endpoint and dispatches each frame as
// it arrives. It returns nil once the complete frame is seen, a *StreamError
// for an in-stream error frame, and the context error when ctx is cancelled
// mid-stream.
func (c *Client) Stream(ctx context.Context, req review.Request, handlers StreamHandlers) error {
	body, err := c.post(ctx, "/review/stream", req, "text/event-stream")
	if err != nil {
		return err
	}
	defer body.Close()

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := body.Read(chunk)
		buf = append(buf, chunk[:n]...)

		for {
			idx := bytes.Index(buf, []byte("\n\n"))
			if idx < 0 {
				break
			}
			frame := buf[:idx]
			buf = buf[idx+2:]
			done, err := dispatchFrame(frame, handlers)
			if done || err != nil {
				return err
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				// A cancelled request surfaces as a read error on the body.
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return fmt.Errorf("read review stream: %w", readErr)
			}
			// A trailing frame without a final blank line still counts.
			if len(bytes.TrimSpace(buf)) > 0 {
				done, err := dispatchFrame(buf, handlers)
				if done || err != nil {
					return err
				}
			}
			return fmt.Errorf("review stream ended without a terminal frame")
		}
	}
}

// dispatchFrame decodes one raw frame and invokes the matching handler.
// Frames with an unknown event name or an undecodable payload are dropped
// silently; done reports that a terminal frame was seen.
func dispatchFrame(raw []byte, handlers StreamHandlers) (done bool, err error) {
	event, data := parseFrame(raw)
	switch event {
	case review.EventStart:
		var payload struct {
			Mode      review.Mode `json:"mode"`
			SectionID string      `json:"sectionId"`
		}
		if json.Unmarshal(data, &payload) == nil && handlers.OnStart != nil {
			handlers.OnStart(payload.Mode, payload.SectionID)
		}
	case review.EventOverall:
		var payload review.Overall
		if json.Unmarshal(data, &payload) == nil && handlers.OnOverall != nil {
			handlers.OnOverall(payload)
		}
	case review.EventSuggestion:
		var payload review.Suggestion
		if json.Unmarshal(data, &payload) == nil && handlers.OnSuggestion != nil {
			handlers.OnSuggestion(payload)
		}
	case review.EventComplete:
		return true, nil
	case review.EventError:
		var payload StreamError
		if json.Unmarshal(data, &payload) != nil {
			payload = StreamError{Message: "stream failed"}
		}
		return true, &payload
	}
	return false, nil
}

// parseFrame splits one frame into its event name and joined data payload.
func parseFrame(raw []byte) (event string, data []byte) {
	var dataLines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return event, []byte(strings.Join(dataLines, "\n"))
}

func (c *Client) post(ctx context.Context, path string, payload any, accept string) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp.Body, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		var details []string
		if json.Unmarshal(envelope.Error.Details, &details) == nil {
			apiErr.Details = details
		}
	}
	return apiErr
}
