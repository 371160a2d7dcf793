package review

import "encoding/json"

// Mode selects what the review covers.
type Mode string

const (
	ModeSection  Mode = "section"
	ModeFull     Mode = "full"
	ModeJobMatch Mode = "job-match"
)

// Tier buckets the overall assessment.
type Tier string

const (
	TierNeedsWork Tier = "Needs Work"
	TierFair      Tier = "Fair"
	TierStrong    Tier = "Strong"
	TierExcellent Tier = "Excellent"
)

// Tiers lists the legal tiers.
var Tiers = []Tier{TierNeedsWork, TierFair, TierStrong, TierExcellent}

// IssueType classifies what a suggestion fixes.
type IssueType string

const (
	IssueImpact  IssueType = "impact"
	IssueClarity IssueType = "clarity"
	IssueATS     IssueType = "ats"
	IssueLength  IssueType = "length"
)

// SuggestionStatus tracks the client-side lifecycle of a suggestion.
type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "pending"
	StatusAccepted  SuggestionStatus = "accepted"
	StatusDismissed SuggestionStatus = "dismissed"
)

// Suggestion is one proposed replacement of a single field-path's string
// value inside the CV document.
type Suggestion struct {
	ID            string           `json:"id"`
	Priority      int              `json:"priority"`
	SectionID     string           `json:"sectionId"`
	FieldPath     string           `json:"fieldPath"`
	IssueType     IssueType        `json:"issueType"`
	OriginalText  string           `json:"originalText"`
	Reason        string           `json:"reason"`
	SuggestedText string           `json:"suggestedText"`
	Title         string           `json:"title"`
	Status        SuggestionStatus `json:"status"`
}

// Overall is the document-level assessment.
type Overall struct {
	Tier    Tier    `json:"tier"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// SectionFeedback groups per-section strengths and suggestions.
type SectionFeedback struct {
	Strengths   []string     `json:"strengths"`
	Suggestions []Suggestion `json:"suggestions"`
}

// JobMatch carries job-description comparison results; present only for
// job-match reviews.
type JobMatch struct {
	Score           float64  `json:"score"`
	MissingKeywords []string `json:"missingKeywords"`
	MatchedKeywords []string `json:"matchedKeywords"`
	RoleFitNotes    []string `json:"roleFitNotes"`
}

// Response is the canonical review response delivered to clients.
type Response struct {
	Mode        Mode                       `json:"mode"`
	GeneratedAt string                     `json:"generatedAt"`
	Overall     Overall                    `json:"overall"`
	TopFixes    []Suggestion               `json:"topFixes"`
	BySection   map[string]SectionFeedback `json:"bySection"`
	JobMatch    *JobMatch                  `json:"jobMatch,omitempty"`
}

// Request is one inbound review request. Constructed per HTTP call,
// validated once, discarded after the review completes.
type Request struct {
	Mode           Mode           `json:"mode"`
	SectionID      string         `json:"sectionId,omitempty"`
	JobDescription string         `json:"jobDescription,omitempty"`
	CVData         map[string]any `json:"cvData"`
	SectionLayout  SectionLayout  `json:"sectionLayout"`
}

// rawModelOutput is the loose shape tolerated from the model backend. Only
// the normalizer ever sees it.
type rawModelOutput struct {
	Mode        string             `json:"mode"`
	GeneratedAt string             `json:"generatedAt"`
	Overall     *rawOverall        `json:"overall"`
	TopFixes    []rawSuggestion    `json:"topFixes"`
	Suggestions []rawSuggestion    `json:"suggestions"`
	BySection   map[string]rawSect `json:"bySection"`
	JobMatch    *rawJobMatch       `json:"jobMatch"`
}

type rawOverall struct {
	Tier    string          `json:"tier"`
	Score   json.RawMessage `json:"score"`
	Summary string          `json:"summary"`
}

type rawSuggestion struct {
	ID            string          `json:"id"`
	Priority      json.RawMessage `json:"priority"`
	SectionID     string          `json:"sectionId"`
	FieldPath     string          `json:"fieldPath"`
	IssueType     string          `json:"issueType"`
	OriginalText  string          `json:"originalText"`
	Reason        string          `json:"reason"`
	SuggestedText string          `json:"suggestedText"`
	Title         string          `json:"title"`
}

type rawSect struct {
	Strengths   []string        `json:"strengths"`
	Suggestions []rawSuggestion `json:"suggestions"`
}

type rawJobMatch struct {
	Score           json.RawMessage `json:"score"`
	MissingKeywords []string        `json:"missingKeywords"`
	MatchedKeywords []string        `json:"matchedKeywords"`
	RoleFitNotes    []string        `json:"roleFitNotes"`
}
