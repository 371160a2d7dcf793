package review

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFeatureDisabled is returned when the AI review feature gate is off.
var ErrFeatureDisabled = errors.New("ai review is disabled")

// ErrNotConfigured is returned when no backend credential is configured.
var ErrNotConfigured = errors.New("ai review backend is not configured")

// TransportError reports that the model backend was unreachable,
// unauthorized, or rate-limited. Status carries the HTTP-equivalent
// upstream status; Detail is a truncated upstream message safe to log.
type TransportError struct {
	Status int
	Detail string
}

func (e *TransportError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("model backend failure (status %d)", e.Status)
	}
	return fmt.Sprintf("model backend failure (status %d): %s", e.Status, e.Detail)
}

// InvalidOutputError reports that model output could not be coerced into a
// valid response within the bounded repair loop.
type InvalidOutputError struct {
	Errors []string
}

func (e *InvalidOutputError) Error() string {
	return "model output failed validation: " + strings.Join(e.Errors, "; ")
}
