package reviewclient

import (
	"fmt"
	"sync"

	"cvreview-backend/internal/diff"
	"cvreview-backend/internal/fieldpath"
	"cvreview-backend/internal/review"
)

// Session tracks one review's suggestions against a local CV document.
// Accepting a suggestion rewrites the document copy held by the session;
// the original document passed to NewSession is never mutated.
type Session struct {
	mu          sync.Mutex
	doc         map[string]any
	overall     review.Overall
	order       []string
	suggestions map[string]review.Suggestion
}

// NewSession starts an empty session over doc.
func NewSession(doc map[string]any) *Session {
	return &Session{
		doc:         doc,
		suggestions: make(map[string]review.Suggestion),
	}
}

// Handlers returns stream handlers that accumulate frames into the session,
// for passing straight to Client.Stream.
func (s *Session) Handlers() StreamHandlers {
	return StreamHandlers{
		OnOverall:    s.SetOverall,
		OnSuggestion: s.Add,
	}
}

// SetOverall records the document-level assessment.
func (s *Session) SetOverall(overall review.Overall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overall = overall
}

// Overall returns the recorded document-level assessment.
func (s *Session) Overall() review.Overall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overall
}

// Add records one suggestion. Re-adding an id overwrites it in place.
func (s *Session) Add(sugg review.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suggestions[sugg.ID]; !exists {
		s.order = append(s.order, sugg.ID)
	}
	s.suggestions[sugg.ID] = sugg
}

// Suggestions returns all suggestions in arrival order.
func (s *Session) Suggestions() []review.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]review.Suggestion, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.suggestions[id])
	}
	return out
}

// Document returns the session's current document state.
func (s *Session) Document() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Accept applies a pending suggestion's replacement text to the document
// and marks it accepted. The patch is all-or-nothing; a path that no longer
// resolves leaves both the document and the suggestion untouched.
func (s *Session) Accept(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sugg, err := s.pending(id)
	if err != nil {
		return err
	}
	patched, err := fieldpath.Apply(s.doc, sugg.FieldPath, sugg.SuggestedText)
	if err != nil {
		return fmt.Errorf("apply suggestion %s: %w", id, err)
	}
	s.doc = patched
	sugg.Status = review.StatusAccepted
	s.suggestions[id] = sugg
	return nil
}

// Dismiss marks a pending suggestion dismissed without touching the
// document.
func (s *Session) Dismiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sugg, err := s.pending(id)
	if err != nil {
		return err
	}
	sugg.Status = review.StatusDismissed
	s.suggestions[id] = sugg
	return nil
}

// Diff returns the word-level diff between a suggestion's original and
// suggested text, for rendering an inline preview.
func (s *Session) Diff(id string) ([]diff.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sugg, ok := s.suggestions[id]
	if !ok {
		return nil, fmt.Errorf("unknown suggestion %q", id)
	}
	return diff.Words(sugg.OriginalText, sugg.SuggestedText), nil
}

func (s *Session) pending(id string) (review.Suggestion, error) {
	sugg, ok := s.suggestions[id]
	if !ok {
		return review.Suggestion{}, fmt.Errorf("unknown suggestion %q", id)
	}
	if sugg.Status != review.StatusPending {
		return review.Suggestion{}, fmt.Errorf("suggestion %q is already %s", id, sugg.Status)
	}
	return sugg, nil
}
