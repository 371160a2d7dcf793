package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo, used when no database
// is configured and in tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]CVDocument
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]CVDocument)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc CVDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (CVDocument, error) {
	if err := ctx.Err(); err != nil {
		return CVDocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return CVDocument{}, ErrNotFound
	}
	return doc, nil
}

// UpdateData replaces a document's content.
func (r *MemoryRepo) UpdateData(ctx context.Context, id string, data map[string]any, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	doc.Data = data
	doc.UpdatedAt = updatedAt
	r.data[id] = doc
	return nil
}

// List returns documents newest-first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]CVDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := make([]CVDocument, 0, len(r.data))
	for _, doc := range r.data {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})

	if offset >= len(docs) {
		return []CVDocument{}, nil
	}
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
