package review

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func sampleCV() map[string]any {
	return map[string]any{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"summary": "Engineer with experience.",
		"work": []any{
			map[string]any{
				"company":     "Analytical Engines Ltd",
				"description": "Built things.",
			},
		},
		"skills": []any{"Go", "SQL"},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
}

func rawFix(priority int, sectionID, fieldPath string) rawSuggestion {
	return rawSuggestion{
		Priority:      json.RawMessage(strconv.Itoa(priority)),
		SectionID:     sectionID,
		FieldPath:     fieldPath,
		IssueType:     "impact",
		Reason:        "Too vague.",
		SuggestedText: "Built the analytical engine compiler used by 40 researchers.",
		Title:         "Quantify the work",
	}
}

func TestNormalizeSubstitutesUnresolvablePath(t *testing.T) {
	req := Request{Mode: ModeFull, CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	resp := n.Normalize(rawModelOutput{
		TopFixes: []rawSuggestion{rawFix(1, "work", "work[9].description")},
	})

	if len(resp.TopFixes) != 1 {
		t.Fatalf("topFixes = %d, want 1", len(resp.TopFixes))
	}
	got := resp.TopFixes[0]
	if got.FieldPath != "work[0].company" {
		t.Errorf("fieldPath = %q, want first eligible work path", got.FieldPath)
	}
	if got.OriginalText != "Analytical Engines Ltd" {
		t.Errorf("originalText = %q, want document value", got.OriginalText)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestNormalizeNeverTargetsIdentityFields(t *testing.T) {
	req := Request{Mode: ModeFull, CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	resp := n.Normalize(rawModelOutput{
		TopFixes: []rawSuggestion{rawFix(1, "", "email")},
	})

	if len(resp.TopFixes) != 1 {
		t.Fatalf("topFixes = %d, want 1 substituted fix", len(resp.TopFixes))
	}
	if resp.TopFixes[0].FieldPath == "email" {
		t.Fatal("identity field path survived normalization")
	}
}

func TestNormalizeSectionModeStaysInSection(t *testing.T) {
	req := Request{Mode: ModeSection, SectionID: "work", CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	// "summary" resolves fine but belongs to another section; plus only one
	// model fix means the result is padded up to the minimum of two.
	resp := n.Normalize(rawModelOutput{
		TopFixes: []rawSuggestion{rawFix(1, "summary", "summary")},
	})

	if len(resp.TopFixes) != 2 {
		t.Fatalf("topFixes = %d, want 2 after padding", len(resp.TopFixes))
	}
	for i, sugg := range resp.TopFixes {
		if sugg.SectionID != "work" {
			t.Errorf("topFixes[%d].sectionId = %q, want work", i, sugg.SectionID)
		}
		if sugg.Priority != i+1 {
			t.Errorf("topFixes[%d].priority = %d, want %d", i, sugg.Priority, i+1)
		}
	}
	if resp.TopFixes[0].FieldPath == resp.TopFixes[1].FieldPath {
		t.Error("padding reused an already-targeted path")
	}
}

func TestNormalizeTruncatesByModelPriority(t *testing.T) {
	req := Request{Mode: ModeFull, CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	resp := n.Normalize(rawModelOutput{
		TopFixes: []rawSuggestion{
			rawFix(4, "skills", "skills[0]"),
			rawFix(1, "summary", "summary"),
			rawFix(3, "work", "work[0].description"),
			rawFix(2, "work", "work[0].company"),
		},
	})

	if len(resp.TopFixes) != 3 {
		t.Fatalf("topFixes = %d, want 3", len(resp.TopFixes))
	}
	wantPaths := []string{"summary", "work[0].company", "work[0].description"}
	for i, want := range wantPaths {
		if resp.TopFixes[i].FieldPath != want {
			t.Errorf("topFixes[%d].fieldPath = %q, want %q", i, resp.TopFixes[i].FieldPath, want)
		}
		if resp.TopFixes[i].Priority != i+1 {
			t.Errorf("topFixes[%d].priority = %d, want reassigned %d", i, resp.TopFixes[i].Priority, i+1)
		}
	}
}

func TestNormalizeDefaultsMissingOverall(t *testing.T) {
	req := Request{Mode: ModeFull, CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	resp := n.Normalize(rawModelOutput{GeneratedAt: "yesterday"})

	if resp.Overall.Tier != TierFair {
		t.Errorf("tier = %q, want default %q", resp.Overall.Tier, TierFair)
	}
	if resp.Overall.Score != defaultScore {
		t.Errorf("score = %v, want %v", resp.Overall.Score, defaultScore)
	}
	if resp.Overall.Summary != defaultSummaryText {
		t.Errorf("summary = %q, want default", resp.Overall.Summary)
	}
	if resp.GeneratedAt != fixedNow().Format(time.RFC3339) {
		t.Errorf("generatedAt = %q, want normalized clock value", resp.GeneratedAt)
	}
}

func TestNormalizeBySectionKeepsLegalStrengths(t *testing.T) {
	req := Request{Mode: ModeFull, CVData: sampleCV()}
	n := newNormalizer(req, NewRegistry(), fixedNow)

	resp := n.Normalize(rawModelOutput{
		TopFixes: []rawSuggestion{rawFix(1, "work", "work[0].description")},
		BySection: map[string]rawSect{
			"work":     {Strengths: []string{"Clear role history.", "  "}},
			"personal": {Strengths: []string{"Nice name."}},
			"hobbies":  {Strengths: []string{"Chess."}},
		},
	})

	work, ok := resp.BySection["work"]
	if !ok {
		t.Fatal("work section feedback missing")
	}
	if len(work.Strengths) != 1 || work.Strengths[0] != "Clear role history." {
		t.Errorf("work strengths = %v", work.Strengths)
	}
	if len(work.Suggestions) != 1 {
		t.Errorf("work suggestions = %d, want the normalized fix", len(work.Suggestions))
	}
	if _, found := resp.BySection["personal"]; found {
		t.Error("personal section must not carry AI feedback")
	}
	if _, found := resp.BySection["hobbies"]; found {
		t.Error("unknown section key survived")
	}
}

func TestNormalizeJobMatchPresence(t *testing.T) {
	reg := NewRegistry()
	full := newNormalizer(Request{Mode: ModeFull, CVData: sampleCV()}, reg, fixedNow).
		Normalize(rawModelOutput{JobMatch: &rawJobMatch{}})
	if full.JobMatch != nil {
		t.Error("jobMatch must be dropped outside job-match mode")
	}

	jm := newNormalizer(Request{Mode: ModeJobMatch, JobDescription: "Go engineer", CVData: sampleCV()}, reg, fixedNow).
		Normalize(rawModelOutput{})
	if jm.JobMatch == nil {
		t.Fatal("jobMatch must be synthesized in job-match mode")
	}
	if jm.JobMatch.MissingKeywords == nil || jm.JobMatch.MatchedKeywords == nil || jm.JobMatch.RoleFitNotes == nil {
		t.Error("jobMatch keyword slices must be non-nil")
	}
}

func TestValidateShapeCatchesViolations(t *testing.T) {
	reg := NewRegistry()
	req := Request{Mode: ModeSection, SectionID: "work", CVData: sampleCV()}
	resp := Response{
		Mode:        ModeSection,
		GeneratedAt: fixedNow().Format(time.RFC3339),
		Overall:     Overall{Tier: TierStrong, Score: 80, Summary: "Solid."},
		TopFixes: []Suggestion{{
			ID:            "s1",
			Priority:      1,
			SectionID:     "summary",
			FieldPath:     "email",
			IssueType:     "style",
			SuggestedText: "x",
			Reason:        "y",
			Title:         "z",
		}},
	}

	errs := validateShape(resp, req, reg)
	for _, want := range []string{
		"topFixes must contain 2-3 suggestions",
		"does not match the requested section",
		"protected identity field",
		"not a legal issue type",
	} {
		if !containsSubstring(errs, want) {
			t.Errorf("errors %v missing %q", errs, want)
		}
	}
}

func TestValidateShapeJobMatchRules(t *testing.T) {
	reg := NewRegistry()
	base := Response{
		Mode:        ModeJobMatch,
		GeneratedAt: fixedNow().Format(time.RFC3339),
		Overall:     Overall{Tier: TierFair, Score: 60, Summary: "Ok."},
	}

	errs := validateShape(base, Request{Mode: ModeJobMatch, CVData: sampleCV()}, reg)
	if !containsSubstring(errs, "jobMatch is required") {
		t.Errorf("errors %v missing jobMatch requirement", errs)
	}

	base.Mode = ModeFull
	base.JobMatch = &JobMatch{Score: 50}
	errs = validateShape(base, Request{Mode: ModeFull, CVData: sampleCV()}, reg)
	if !containsSubstring(errs, "jobMatch must be omitted") {
		t.Errorf("errors %v missing jobMatch exclusion", errs)
	}
}
