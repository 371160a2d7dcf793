package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvreview-backend/internal/diff"
	"cvreview-backend/internal/fieldpath"
	"cvreview-backend/internal/review"
)

// Service contains business logic for CV documents.
type Service struct {
	Repo     Repo
	Registry *review.Registry

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, reg *review.Registry) *Service {
	return &Service{Repo: repo, Registry: reg, now: time.Now}
}

// Create stores a new document.
func (s *Service) Create(ctx context.Context, title string, data map[string]any) (CVDocument, error) {
	if data == nil {
		return CVDocument{}, fmt.Errorf("%w: cvData is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	doc := CVDocument{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return CVDocument{}, err
	}
	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, id string) (CVDocument, error) {
	if strings.TrimSpace(id) == "" {
		return CVDocument{}, fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns documents, most recently updated first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]CVDocument, error) {
	return s.Repo.List(ctx, limit, offset)
}

// AppliedSuggestion is the outcome of applying one suggestion to a stored
// document: the updated document plus a word diff of the replaced field.
type AppliedSuggestion struct {
	Document CVDocument
	Segments []diff.Segment
}

// ApplySuggestion replaces the string at fieldPath with suggestedText and
// persists the result. Identity fields are write-protected; a path that no
// longer resolves leaves the document unchanged.
func (s *Service) ApplySuggestion(ctx context.Context, id, fieldPath, suggestedText string) (AppliedSuggestion, error) {
	fieldPath = strings.TrimSpace(fieldPath)
	if fieldPath == "" {
		return AppliedSuggestion{}, fmt.Errorf("%w: fieldPath is required", ErrInvalidInput)
	}
	if strings.TrimSpace(suggestedText) == "" {
		return AppliedSuggestion{}, fmt.Errorf("%w: suggestedText is required", ErrInvalidInput)
	}
	root := fieldpath.Root(fieldPath)
	if root == "" {
		return AppliedSuggestion{}, fmt.Errorf("%w: fieldPath %q is not a valid path", ErrInvalidInput, fieldPath)
	}
	if s.Registry.IsIdentityField(root) {
		return AppliedSuggestion{}, fmt.Errorf("%w: fieldPath %q targets a protected identity field", ErrInvalidInput, fieldPath)
	}

	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return AppliedSuggestion{}, err
	}

	original, err := fieldpath.Resolve(doc.Data, fieldPath)
	if err != nil {
		return AppliedSuggestion{}, fmt.Errorf("%w: fieldPath %q does not address a string field", ErrInvalidInput, fieldPath)
	}
	patched, err := fieldpath.Apply(doc.Data, fieldPath, suggestedText)
	if err != nil {
		return AppliedSuggestion{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	doc.Data = patched
	doc.UpdatedAt = s.now().UTC()
	if err := s.Repo.UpdateData(ctx, doc.ID, doc.Data, doc.UpdatedAt); err != nil {
		return AppliedSuggestion{}, err
	}

	return AppliedSuggestion{
		Document: doc,
		Segments: diff.Words(original, suggestedText),
	}, nil
}
