package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Document content lives in a JSONB
// column.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc CVDocument) error {
	const query = `
INSERT INTO cv_documents (id, title, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`

	payload, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document data: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, doc.ID, doc.Title, payload, doc.CreatedAt, doc.UpdatedAt)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (CVDocument, error) {
	const query = `
SELECT id, title, data, created_at, updated_at
FROM cv_documents
WHERE id = $1`

	var doc CVDocument
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&payload,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CVDocument{}, ErrNotFound
		}
		return CVDocument{}, err
	}
	if err := json.Unmarshal(payload, &doc.Data); err != nil {
		return CVDocument{}, fmt.Errorf("decode document data: %w", err)
	}
	return doc, nil
}

// UpdateData replaces a document's content.
func (r *PGRepo) UpdateData(ctx context.Context, id string, data map[string]any, updatedAt time.Time) error {
	const query = `
UPDATE cv_documents
SET data = $1, updated_at = $2
WHERE id = $3`

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document data: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, payload, updatedAt, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns documents ordered by most recent update.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]CVDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, title, data, created_at, updated_at
FROM cv_documents
ORDER BY updated_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CVDocument
	for rows.Next() {
		var doc CVDocument
		var payload []byte
		if err := rows.Scan(&doc.ID, &doc.Title, &payload, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document data: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
