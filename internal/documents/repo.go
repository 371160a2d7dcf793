package documents

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidInput indicates the caller supplied unusable input.
var ErrInvalidInput = errors.New("invalid input")

// Repo defines persistence operations for CV documents.
type Repo interface {
	Create(ctx context.Context, doc CVDocument) error
	GetByID(ctx context.Context, id string) (CVDocument, error)
	UpdateData(ctx context.Context, id string, data map[string]any, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]CVDocument, error)
}
