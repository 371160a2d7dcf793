package review

import (
	"strings"
	"testing"
)

func TestValidateRequestFullMode(t *testing.T) {
	reg := NewRegistry()
	result := ValidateRequest(map[string]any{
		"mode":   "full",
		"cvData": map[string]any{"summary": "Engineer."},
	}, reg)

	if !result.OK {
		t.Fatalf("expected valid request, got errors %v", result.Errors)
	}
	if result.Value.Mode != ModeFull {
		t.Errorf("mode = %q, want %q", result.Value.Mode, ModeFull)
	}
	if len(result.Value.SectionLayout.Columns) != 2 {
		t.Errorf("layout columns = %d, want 2", len(result.Value.SectionLayout.Columns))
	}
}

func TestValidateRequestCollectsAllErrors(t *testing.T) {
	reg := NewRegistry()
	result := ValidateRequest(map[string]any{"mode": "everything"}, reg)

	if result.OK {
		t.Fatal("expected invalid request")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want bad mode and missing cvData", result.Errors)
	}
}

func TestValidateRequestNonObject(t *testing.T) {
	result := ValidateRequest([]any{"not", "an", "object"}, NewRegistry())
	if result.OK || len(result.Errors) != 1 {
		t.Fatalf("expected single rejection, got %v", result.Errors)
	}
}

func TestValidateRequestSectionMode(t *testing.T) {
	reg := NewRegistry()
	cases := []struct {
		name      string
		sectionID any
		wantOK    bool
		wantErr   string
	}{
		{"supported section", "work", true, ""},
		{"missing sectionId", nil, false, "sectionId is required"},
		{"personal excluded", "personal", false, "not an AI-supported section"},
		{"unknown section", "hobbies", false, "not an AI-supported section"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := map[string]any{
				"mode":   "section",
				"cvData": map[string]any{"work": []any{}},
			}
			if tc.sectionID != nil {
				payload["sectionId"] = tc.sectionID
			}
			result := ValidateRequest(payload, reg)
			if result.OK != tc.wantOK {
				t.Fatalf("OK = %v, want %v (errors %v)", result.OK, tc.wantOK, result.Errors)
			}
			if tc.wantErr != "" && !containsSubstring(result.Errors, tc.wantErr) {
				t.Errorf("errors %v missing %q", result.Errors, tc.wantErr)
			}
		})
	}
}

func TestValidateRequestJobMatchNeedsDescription(t *testing.T) {
	reg := NewRegistry()
	result := ValidateRequest(map[string]any{
		"mode":           "job-match",
		"cvData":         map[string]any{},
		"jobDescription": "   ",
	}, reg)
	if result.OK || !containsSubstring(result.Errors, "jobDescription is required") {
		t.Fatalf("expected jobDescription error, got %v", result.Errors)
	}
}

func TestNormalizeLayoutRepairsInput(t *testing.T) {
	reg := NewRegistry()
	layout := reg.NormalizeLayout(map[string]any{
		"columns": []any{
			[]any{"work", "bogus", "work", "summary"},
			[]any{"skills"},
		},
	})

	if got := layout.Columns[0]; len(got) < 2 || got[0] != "work" || got[1] != "summary" {
		t.Errorf("column 0 = %v, want work then summary first", got)
	}
	seen := map[string]bool{}
	total := 0
	for _, col := range layout.Columns {
		for _, id := range col {
			if seen[id] {
				t.Errorf("section %q appears twice", id)
			}
			seen[id] = true
			total++
		}
	}
	if total != len(reg.Sections()) {
		t.Errorf("layout holds %d sections, want all %d", total, len(reg.Sections()))
	}
}

func TestNormalizeLayoutMalformedFallsBack(t *testing.T) {
	reg := NewRegistry()
	layout := reg.NormalizeLayout("not a layout")
	if len(layout.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(layout.Columns))
	}
	if layout.Columns[0][0] != SectionPersonal {
		t.Errorf("default layout starts with %q, want %q", layout.Columns[0][0], SectionPersonal)
	}
}

func containsSubstring(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
