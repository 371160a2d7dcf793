package review

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvreview-backend/internal/fieldpath"
)

const (
	maxTopFixes        = 3
	minSectionFixes    = 2
	defaultScore       = 60
	defaultSummaryText = "Resume review completed."
)

// eligiblePath is one string field of the CV document that may legally
// receive a suggestion.
type eligiblePath struct {
	Path      string
	SectionID string
	Text      string
}

// eligiblePaths enumerates every string leaf of cvData whose root field
// belongs to a non-identity section, in registry order. Array elements and
// record fields are visited in stable order.
func eligiblePaths(cvData map[string]any, reg *Registry) []eligiblePath {
	var out []eligiblePath
	for _, sectionID := range reg.AISupported() {
		for _, root := range reg.FieldsForSection(sectionID) {
			value, ok := cvData[root]
			if !ok {
				continue
			}
			switch node := value.(type) {
			case string:
				out = append(out, eligiblePath{Path: root, SectionID: sectionID, Text: node})
			case []any:
				for i, item := range node {
					switch elem := item.(type) {
					case string:
						out = append(out, eligiblePath{
							Path:      root + "[" + strconv.Itoa(i) + "]",
							SectionID: sectionID,
							Text:      elem,
						})
					case map[string]any:
						keys := make([]string, 0, len(elem))
						for k := range elem {
							keys = append(keys, k)
						}
						sort.Strings(keys)
						for _, k := range keys {
							if text, ok := elem[k].(string); ok {
								out = append(out, eligiblePath{
									Path:      root + "[" + strconv.Itoa(i) + "]." + k,
									SectionID: sectionID,
									Text:      text,
								})
							}
						}
					}
				}
			}
		}
	}
	return out
}

// normalizer maps the loose model output into the canonical response shape
// for one request.
type normalizer struct {
	req      Request
	reg      *Registry
	eligible []eligiblePath
	now      func() time.Time
}

func newNormalizer(req Request, reg *Registry, now func() time.Time) *normalizer {
	if now == nil {
		now = time.Now
	}
	return &normalizer{
		req:      req,
		reg:      reg,
		eligible: eligiblePaths(req.CVData, reg),
		now:      now,
	}
}

// Normalize builds the canonical Response from whatever shape the model
// returned. The result still goes through shape validation; normalization
// is best-effort, validation is authoritative.
func (n *normalizer) Normalize(raw rawModelOutput) Response {
	resp := Response{
		Mode:        n.req.Mode,
		GeneratedAt: n.normalizeGeneratedAt(raw.GeneratedAt),
		Overall:     n.normalizeOverall(raw.Overall),
	}

	rawFixes := raw.TopFixes
	if len(rawFixes) == 0 {
		// Some models answer with a bare "suggestions" array.
		rawFixes = raw.Suggestions
	}
	sort.SliceStable(rawFixes, func(i, j int) bool {
		return priorityOf(rawFixes[i]) < priorityOf(rawFixes[j])
	})

	fixes := make([]Suggestion, 0, len(rawFixes))
	used := make(map[string]bool)
	for _, rs := range rawFixes {
		sugg, ok := n.normalizeSuggestion(rs, used)
		if !ok {
			continue
		}
		used[sugg.FieldPath] = true
		fixes = append(fixes, sugg)
	}

	fixes = n.enforceCardinality(fixes, used)
	for i := range fixes {
		fixes[i].Priority = i + 1
	}
	resp.TopFixes = fixes
	resp.BySection = n.buildBySection(raw.BySection, fixes)

	if n.req.Mode == ModeJobMatch {
		resp.JobMatch = n.normalizeJobMatch(raw.JobMatch)
	}
	return resp
}

func (n *normalizer) normalizeGeneratedAt(raw string) string {
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
		return ts.UTC().Format(time.RFC3339)
	}
	return n.now().UTC().Format(time.RFC3339)
}

func (n *normalizer) normalizeOverall(raw *rawOverall) Overall {
	out := Overall{Tier: TierFair, Score: defaultScore, Summary: defaultSummaryText}
	if raw == nil {
		return out
	}
	for _, tier := range Tiers {
		if strings.EqualFold(strings.TrimSpace(raw.Tier), string(tier)) {
			out.Tier = tier
			break
		}
	}
	if score, ok := floatFromRaw(raw.Score); ok {
		out.Score = clampScore(score)
	}
	if summary := strings.TrimSpace(raw.Summary); summary != "" {
		out.Summary = summary
	}
	return out
}

// normalizeSuggestion resolves a usable field path for one raw suggestion.
// The model's own path wins when it resolves to a non-identity string field
// (and stays inside the requested section for section reviews); otherwise
// the first unused eligible path for the inferred section is substituted,
// then the first unused eligible path anywhere. With no eligible path left
// the suggestion is dropped.
func (n *normalizer) normalizeSuggestion(rs rawSuggestion, used map[string]bool) (Suggestion, bool) {
	path, sectionID, originalText, ok := n.resolvePath(rs, used)
	if !ok {
		return Suggestion{}, false
	}

	sugg := Suggestion{
		ID:            strings.TrimSpace(rs.ID),
		SectionID:     sectionID,
		FieldPath:     path,
		IssueType:     normalizeIssueType(rs.IssueType),
		OriginalText:  originalText,
		Reason:        strings.TrimSpace(rs.Reason),
		SuggestedText: strings.TrimSpace(rs.SuggestedText),
		Title:         strings.TrimSpace(rs.Title),
		Status:        StatusPending,
	}
	if sugg.ID == "" {
		sugg.ID = uuid.NewString()
	}
	if sugg.SuggestedText == "" {
		return Suggestion{}, false
	}
	if sugg.Reason == "" {
		sugg.Reason = "The current text can be strengthened."
	}
	if sugg.Title == "" {
		sugg.Title = "Improve this entry"
	}
	return sugg, true
}

func (n *normalizer) resolvePath(rs rawSuggestion, used map[string]bool) (path, sectionID, originalText string, ok bool) {
	candidate := strings.TrimSpace(rs.FieldPath)
	if candidate != "" {
		root := fieldpath.Root(candidate)
		if root != "" && !n.reg.IsIdentityField(root) {
			if text, err := fieldpath.Resolve(n.req.CVData, candidate); err == nil {
				section := n.reg.SectionForField(root)
				if section != "" && (n.req.Mode != ModeSection || section == n.req.SectionID) {
					return candidate, section, text, true
				}
			}
		}
	}

	inferred := strings.TrimSpace(rs.SectionID)
	if n.req.Mode == ModeSection {
		inferred = n.req.SectionID
	}
	if ep, found := n.firstEligible(inferred, used); found {
		return ep.Path, ep.SectionID, ep.Text, true
	}
	if n.req.Mode != ModeSection {
		if ep, found := n.firstEligible("", used); found {
			return ep.Path, ep.SectionID, ep.Text, true
		}
	}
	return "", "", "", false
}

// firstEligible returns the first unused eligible path, restricted to
// sectionID when non-empty.
func (n *normalizer) firstEligible(sectionID string, used map[string]bool) (eligiblePath, bool) {
	for _, ep := range n.eligible {
		if used[ep.Path] {
			continue
		}
		if sectionID != "" && ep.SectionID != sectionID {
			continue
		}
		return ep, true
	}
	return eligiblePath{}, false
}

// enforceCardinality truncates to the mode's maximum and, for section
// reviews, pads under-produced results with generic filler suggestions
// against real eligible paths.
func (n *normalizer) enforceCardinality(fixes []Suggestion, used map[string]bool) []Suggestion {
	if len(fixes) > maxTopFixes {
		fixes = fixes[:maxTopFixes]
	}
	if n.req.Mode != ModeSection {
		return fixes
	}
	for len(fixes) < minSectionFixes {
		ep, found := n.firstEligible(n.req.SectionID, used)
		if !found {
			break
		}
		used[ep.Path] = true
		fixes = append(fixes, Suggestion{
			ID:            uuid.NewString(),
			SectionID:     ep.SectionID,
			FieldPath:     ep.Path,
			IssueType:     IssueClarity,
			OriginalText:  ep.Text,
			Reason:        "This entry reads as generic; adding specifics makes it more convincing.",
			SuggestedText: fillerRewrite(ep.Text),
			Title:         "Add concrete detail",
			Status:        StatusPending,
		})
	}
	return fixes
}

func fillerRewrite(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "Describe this entry with a concrete, measurable outcome."
	}
	return trimmed + " (quantify the outcome, e.g. scale, impact, or results)"
}

func (n *normalizer) buildBySection(raw map[string]rawSect, fixes []Suggestion) map[string]SectionFeedback {
	out := make(map[string]SectionFeedback)
	for _, sugg := range fixes {
		fb := out[sugg.SectionID]
		fb.Suggestions = append(fb.Suggestions, sugg)
		out[sugg.SectionID] = fb
	}
	for key, sect := range raw {
		if !n.reg.IsSection(key) || key == SectionPersonal {
			continue
		}
		fb := out[key]
		for _, s := range sect.Strengths {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				fb.Strengths = append(fb.Strengths, trimmed)
			}
		}
		out[key] = fb
	}
	for key, fb := range out {
		if fb.Strengths == nil {
			fb.Strengths = []string{}
		}
		if fb.Suggestions == nil {
			fb.Suggestions = []Suggestion{}
		}
		out[key] = fb
	}
	return out
}

func (n *normalizer) normalizeJobMatch(raw *rawJobMatch) *JobMatch {
	out := &JobMatch{
		MissingKeywords: []string{},
		MatchedKeywords: []string{},
		RoleFitNotes:    []string{},
	}
	if raw == nil {
		out.Score = defaultScore
		return out
	}
	if score, ok := floatFromRaw(raw.Score); ok {
		out.Score = clampScore(score)
	} else {
		out.Score = defaultScore
	}
	out.MissingKeywords = ensureStrings(raw.MissingKeywords)
	out.MatchedKeywords = ensureStrings(raw.MatchedKeywords)
	out.RoleFitNotes = ensureStrings(raw.RoleFitNotes)
	return out
}

func normalizeIssueType(raw string) IssueType {
	switch IssueType(strings.ToLower(strings.TrimSpace(raw))) {
	case IssueImpact, IssueClarity, IssueATS, IssueLength:
		return IssueType(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return IssueClarity
	}
}

func ensureStrings(value []string) []string {
	if value == nil {
		return []string{}
	}
	out := make([]string, 0, len(value))
	for _, s := range value {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampScore(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// priorityOf reads the model-assigned priority for ordering; suggestions
// without one sort last.
func priorityOf(rs rawSuggestion) int {
	if p, ok := floatFromRaw(rs.Priority); ok && p >= 1 {
		return int(p)
	}
	return 1 << 20
}

// floatFromRaw tolerates numbers or numeric strings.
func floatFromRaw(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
