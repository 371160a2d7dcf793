package review

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cvreview-backend/internal/logger"
	"cvreview-backend/internal/server/respond"
)

// Handler exposes the review service over HTTP.
type Handler struct {
	Svc *Service
	Log *zap.Logger
}

// NewHandler constructs a Handler. A nil logger falls back to a no-op one.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger.WithFields(log)}
}

// Register mounts the review routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/review", h.review)
	rg.POST("/review/stream", h.reviewStream)
}

// review runs one review synchronously and returns the full response body.
func (h *Handler) review(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}
	resp, err := h.Svc.Run(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, resp)
}

// reviewStream runs one review and emits it as an SSE event sequence.
// Failures before the stream opens return regular JSON errors; once the
// start frame is written, failures become an error frame instead.
func (h *Handler) reviewStream(c *gin.Context) {
	req, ok := h.decode(c)
	if !ok {
		return
	}
	if !h.Svc.Enabled {
		h.fail(c, ErrFeatureDisabled)
		return
	}
	if h.Svc.LLM == nil {
		h.fail(c, ErrNotConfigured)
		return
	}

	setStreamHeaders(c)
	if !emitFrames(c, []frame{{Event: EventStart, Payload: startPayload{Mode: req.Mode, SectionID: req.SectionID}}}) {
		return
	}

	resp, err := h.Svc.Run(c.Request.Context(), req)
	if err != nil {
		emitFrames(c, []frame{{Event: EventError, Payload: streamError(err)}})
		return
	}
	emitFrames(c, resultFrames(resp))
}

// decode parses and validates the request body. On failure it writes the
// 400 response itself and reports false.
func (h *Handler) decode(c *gin.Context) (Request, bool) {
	var payload any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return Request{}, false
	}
	result := ValidateRequest(payload, h.Svc.Registry)
	if !result.OK {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid review request", result.Errors)
		return Request{}, false
	}
	return result.Value, true
}

// fail maps pipeline errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	var transportErr *TransportError
	var invalidErr *InvalidOutputError
	switch {
	case errors.Is(err, ErrFeatureDisabled):
		respond.Error(c, http.StatusNotFound, "feature_disabled", "AI review is not enabled", nil)
	case errors.Is(err, ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "AI review backend is not configured", nil)
	case errors.As(err, &transportErr):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "AI backend request failed", []string{transportErr.Detail})
	case errors.As(err, &invalidErr):
		respond.Error(c, http.StatusBadGateway, "invalid_model_output", "AI backend returned an unusable response", invalidErr.Errors)
	default:
		h.Log.Error("review failed", zap.Error(err))
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}

// streamError converts a pipeline error into the in-stream error payload.
func streamError(err error) errorPayload {
	var invalidErr *InvalidOutputError
	if errors.As(err, &invalidErr) {
		return errorPayload{Message: "AI backend returned an unusable response", Details: invalidErr.Errors}
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return errorPayload{Message: "AI backend request failed", Details: []string{transportErr.Detail}}
	}
	return errorPayload{Message: "review failed", Details: []string{}}
}
