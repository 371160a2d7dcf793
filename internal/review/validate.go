package review

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cvreview-backend/internal/fieldpath"
)

// validateShape re-checks every response invariant after normalization.
// Returned errors feed the repair prompt, so each one names the offending
// field concretely.
func validateShape(resp Response, req Request, reg *Registry) []string {
	var errs []string

	if resp.Mode != req.Mode {
		errs = append(errs, fmt.Sprintf("mode is %q, expected %q", resp.Mode, req.Mode))
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		errs = append(errs, "generatedAt is not a valid ISO-8601 timestamp")
	}

	if !validTier(resp.Overall.Tier) {
		errs = append(errs, fmt.Sprintf("overall.tier %q is not a legal tier", resp.Overall.Tier))
	}
	if resp.Overall.Score < 0 || resp.Overall.Score > 100 {
		errs = append(errs, "overall.score must be between 0 and 100")
	}
	if strings.TrimSpace(resp.Overall.Summary) == "" {
		errs = append(errs, "overall.summary is required")
	}

	switch req.Mode {
	case ModeSection:
		if len(resp.TopFixes) < minSectionFixes || len(resp.TopFixes) > maxTopFixes {
			errs = append(errs, fmt.Sprintf("topFixes must contain 2-3 suggestions for a section review, got %d", len(resp.TopFixes)))
		}
	default:
		if len(resp.TopFixes) > maxTopFixes {
			errs = append(errs, fmt.Sprintf("topFixes must contain at most 3 suggestions, got %d", len(resp.TopFixes)))
		}
	}

	for i, sugg := range resp.TopFixes {
		errs = append(errs, validateSuggestion(fmt.Sprintf("topFixes[%d]", i), sugg, req, reg)...)
	}

	for key := range resp.BySection {
		if !reg.IsSection(key) {
			errs = append(errs, fmt.Sprintf("bySection key %q is not a legal section", key))
		}
	}

	if req.Mode == ModeJobMatch && resp.JobMatch == nil {
		errs = append(errs, "jobMatch is required for a job-match review")
	}
	if req.Mode != ModeJobMatch && resp.JobMatch != nil {
		errs = append(errs, "jobMatch must be omitted unless mode is \"job-match\"")
	}

	return errs
}

func validateSuggestion(label string, sugg Suggestion, req Request, reg *Registry) []string {
	var errs []string

	if strings.TrimSpace(sugg.ID) == "" {
		errs = append(errs, label+".id is required")
	}
	if sugg.Priority < 1 {
		errs = append(errs, label+".priority must be a positive integer")
	}
	if !reg.IsSection(sugg.SectionID) {
		errs = append(errs, fmt.Sprintf("%s.sectionId %q is not a legal section", label, sugg.SectionID))
	}
	if req.Mode == ModeSection && sugg.SectionID != req.SectionID {
		errs = append(errs, fmt.Sprintf("%s.sectionId %q does not match the requested section %q", label, sugg.SectionID, req.SectionID))
	}

	root := fieldpath.Root(sugg.FieldPath)
	if root == "" {
		errs = append(errs, fmt.Sprintf("%s.fieldPath %q is not a valid path", label, sugg.FieldPath))
	} else {
		if reg.IsIdentityField(root) {
			errs = append(errs, fmt.Sprintf("%s.fieldPath %q targets a protected identity field", label, sugg.FieldPath))
		}
		if _, err := fieldpath.Resolve(req.CVData, sugg.FieldPath); err != nil {
			switch {
			case errors.Is(err, fieldpath.ErrTypeMismatch):
				errs = append(errs, fmt.Sprintf("%s.fieldPath %q does not address a string field", label, sugg.FieldPath))
			default:
				errs = append(errs, fmt.Sprintf("%s.fieldPath %q does not exist in the document", label, sugg.FieldPath))
			}
		}
	}

	switch sugg.IssueType {
	case IssueImpact, IssueClarity, IssueATS, IssueLength:
	default:
		errs = append(errs, fmt.Sprintf("%s.issueType %q is not a legal issue type", label, sugg.IssueType))
	}
	if strings.TrimSpace(sugg.SuggestedText) == "" {
		errs = append(errs, label+".suggestedText is required")
	}
	if strings.TrimSpace(sugg.Reason) == "" {
		errs = append(errs, label+".reason is required")
	}
	if strings.TrimSpace(sugg.Title) == "" {
		errs = append(errs, label+".title is required")
	}
	return errs
}

func validTier(tier Tier) bool {
	for _, t := range Tiers {
		if t == tier {
			return true
		}
	}
	return false
}
