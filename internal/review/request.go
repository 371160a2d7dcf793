package review

import (
	"fmt"
	"strings"
)

// ValidationResult carries the outcome of request validation. Errors are
// collected, not short-circuited; OK is true iff Errors is empty.
type ValidationResult struct {
	OK     bool
	Errors []string
	Value  Request
}

// ValidateRequest checks a decoded JSON payload against the mode-specific
// rules and normalizes the section layout. All applicable errors are
// returned as a flat ordered list of human-readable strings.
func ValidateRequest(payload any, reg *Registry) ValidationResult {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ValidationResult{Errors: []string{"request body must be a JSON object"}}
	}

	var errs []string
	req := Request{}

	mode, _ := obj["mode"].(string)
	switch Mode(mode) {
	case ModeSection, ModeFull, ModeJobMatch:
		req.Mode = Mode(mode)
	default:
		errs = append(errs, fmt.Sprintf("mode must be one of %q, %q, %q", ModeSection, ModeFull, ModeJobMatch))
	}

	cvData, ok := obj["cvData"].(map[string]any)
	if !ok {
		errs = append(errs, "cvData is required and must be an object")
		// Later checks still run so every applicable error is reported.
		cvData = map[string]any{}
	}
	req.CVData = cvData

	req.SectionLayout = reg.NormalizeLayout(obj["sectionLayout"])

	// Mode-specific requirements only apply once mode itself is interpretable.
	switch req.Mode {
	case ModeSection:
		sectionID, _ := obj["sectionId"].(string)
		req.SectionID = sectionID
		if strings.TrimSpace(sectionID) == "" {
			errs = append(errs, "sectionId is required when mode is \"section\"")
		} else if !reg.IsAISupported(sectionID) {
			errs = append(errs, fmt.Sprintf("sectionId %q is not an AI-supported section", sectionID))
		}
	case ModeJobMatch:
		jobDescription, _ := obj["jobDescription"].(string)
		req.JobDescription = jobDescription
		if strings.TrimSpace(jobDescription) == "" {
			errs = append(errs, "jobDescription is required when mode is \"job-match\"")
		}
	}

	return ValidationResult{
		OK:     len(errs) == 0,
		Errors: errs,
		Value:  req,
	}
}
