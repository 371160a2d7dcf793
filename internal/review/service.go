package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cvreview-backend/internal/llm"
	"cvreview-backend/internal/logger"
)

// maxAttempts bounds the repair loop: one initial call plus one repair.
const maxAttempts = 2

// Service drives the redact/prompt/call/normalize/validate pipeline for one
// review request. It holds only read-only configuration; every call is an
// independent task.
type Service struct {
	LLM      llm.Client
	Registry *Registry
	Enabled  bool
	Log      *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a Service. A nil logger falls back to a no-op one.
func NewService(client llm.Client, reg *Registry, enabled bool, log *zap.Logger) *Service {
	return &Service{
		LLM:      client,
		Registry: reg,
		Enabled:  enabled,
		Log:      logger.WithFields(log, zap.String("component", "review")),
	}
}

// Run executes one review. The request must already be validated. Failures
// surface as ErrFeatureDisabled, ErrNotConfigured, *TransportError, or
// *InvalidOutputError.
func (s *Service) Run(ctx context.Context, req Request) (Response, error) {
	if !s.Enabled {
		return Response{}, ErrFeatureDisabled
	}
	if s.LLM == nil {
		return Response{}, ErrNotConfigured
	}

	start := time.Now()
	totalTokens := 0

	conversation := buildPrompt(req, redactIdentity(req.CVData, s.Registry))
	messages := conversation

	var lastErrors []string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := s.LLM.Chat(ctx, llm.ChatRequest{Messages: messages, StrictJSON: true})
		if err != nil {
			transportErr := asTransportError(err)
			s.logReview(req, false, start, totalTokens, attempt, transportErr.Error())
			return Response{}, transportErr
		}
		totalTokens += result.Usage.TotalTokens

		raw, parseErr := parseModelOutput(result.Text)
		if parseErr == nil {
			resp := newNormalizer(req, s.Registry, s.now).Normalize(raw)
			if errs := validateShape(resp, req, s.Registry); len(errs) == 0 {
				finalize(&resp)
				s.logReview(req, true, start, totalTokens, attempt, "")
				return resp, nil
			} else {
				lastErrors = errs
			}
		} else {
			lastErrors = []string{parseErr.Error()}
		}

		if attempt < maxAttempts {
			messages = buildRepairPrompt(conversation, result.Text, lastErrors)
		}
	}

	s.logReview(req, false, start, totalTokens, maxAttempts, "validation exhausted")
	return Response{}, &InvalidOutputError{Errors: lastErrors}
}

// finalize re-normalizes container fields so no nil maps or slices (and no
// unexpected keys) reach the client.
func finalize(resp *Response) {
	if resp.TopFixes == nil {
		resp.TopFixes = []Suggestion{}
	}
	if resp.BySection == nil {
		resp.BySection = map[string]SectionFeedback{}
	}
	if resp.JobMatch != nil {
		if resp.JobMatch.MissingKeywords == nil {
			resp.JobMatch.MissingKeywords = []string{}
		}
		if resp.JobMatch.MatchedKeywords == nil {
			resp.JobMatch.MatchedKeywords = []string{}
		}
		if resp.JobMatch.RoleFitNotes == nil {
			resp.JobMatch.RoleFitNotes = []string{}
		}
	}
}

func asTransportError(err error) *TransportError {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return &TransportError{Status: statusErr.Status, Detail: statusErr.Body}
	}
	return &TransportError{
		Status: http.StatusBadGateway,
		Detail: fmt.Sprintf("backend call failed: %v", err),
	}
}

func (s *Service) logReview(req Request, ok bool, start time.Time, tokens, attempts int, detail string) {
	fields := []zap.Field{
		zap.String("mode", string(req.Mode)),
		zap.Bool("ok", ok),
		zap.Duration("latency", time.Since(start)),
		zap.Int("total_tokens", tokens),
		zap.Int("attempts", attempts),
	}
	if req.SectionID != "" {
		fields = append(fields, zap.String("section_id", req.SectionID))
	}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	s.Log.Info("review completed", fields...)
}
