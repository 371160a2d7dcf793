package documents

import (
	"time"

	"cvreview-backend/internal/diff"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID string         `json:"documentId"`
	Title      string         `json:"title"`
	CVData     map[string]any `json:"cvData"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func toResponse(doc CVDocument) DocumentResponse {
	return DocumentResponse{
		DocumentID: doc.ID,
		Title:      doc.Title,
		CVData:     doc.Data,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// ApplyResponse reports an applied suggestion: the updated document plus a
// word-level diff of the replaced field for preview rendering.
type ApplyResponse struct {
	Document DocumentResponse `json:"document"`
	Diff     []diff.Segment   `json:"diff"`
}
