package documents

import "time"

// CVDocument is one stored CV. Data holds the structured document content
// keyed by root field name (summary, work, skills, ...).
type CVDocument struct {
	ID        string
	Title     string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
