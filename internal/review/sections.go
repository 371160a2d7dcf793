package review

// Registry is the immutable table of legal CV sections. It is built once at
// startup and injected into the validator and normalizer.
type Registry struct {
	sections    []string
	aiSupported []string
	identity    []string
	fieldRoots  map[string]string
	columns     [][]string
}

// SectionPersonal is the identity section; it is a legal content section but
// excluded from the AI-supported allowlist.
const SectionPersonal = "personal"

// RedactedSentinel replaces identity-field values in the document copy sent
// to the model backend.
const RedactedSentinel = "[REDACTED]"

// NewRegistry returns the fixed section registry.
func NewRegistry() *Registry {
	return &Registry{
		sections: []string{
			SectionPersonal, "summary", "work", "education",
			"skills", "projects", "certifications", "languages",
		},
		aiSupported: []string{
			"summary", "work", "education",
			"skills", "projects", "certifications", "languages",
		},
		identity: []string{"name", "email", "phone", "linkedin"},
		fieldRoots: map[string]string{
			"name":           SectionPersonal,
			"email":          SectionPersonal,
			"phone":          SectionPersonal,
			"linkedin":       SectionPersonal,
			"summary":        "summary",
			"work":           "work",
			"education":      "education",
			"skills":         "skills",
			"projects":       "projects",
			"certifications": "certifications",
			"languages":      "languages",
		},
		columns: [][]string{
			{SectionPersonal, "summary", "work", "education"},
			{"skills", "projects", "certifications", "languages"},
		},
	}
}

// Sections returns all legal content section ids in registry order.
func (r *Registry) Sections() []string {
	out := make([]string, len(r.sections))
	copy(out, r.sections)
	return out
}

// AISupported returns the section ids eligible for AI suggestions.
func (r *Registry) AISupported() []string {
	out := make([]string, len(r.aiSupported))
	copy(out, r.aiSupported)
	return out
}

// IsSection reports whether id is a legal content section.
func (r *Registry) IsSection(id string) bool {
	for _, s := range r.sections {
		if s == id {
			return true
		}
	}
	return false
}

// IsAISupported reports whether id may receive AI suggestions.
func (r *Registry) IsAISupported(id string) bool {
	for _, s := range r.aiSupported {
		if s == id {
			return true
		}
	}
	return false
}

// IdentityFields returns the write-protected root field names.
func (r *Registry) IdentityFields() []string {
	out := make([]string, len(r.identity))
	copy(out, r.identity)
	return out
}

// IsIdentityField reports whether the root field name is write-protected.
func (r *Registry) IsIdentityField(root string) bool {
	for _, f := range r.identity {
		if f == root {
			return true
		}
	}
	return false
}

// SectionForField maps a document root field name to its section id, or ""
// when the field is not part of the schema.
func (r *Registry) SectionForField(root string) string {
	return r.fieldRoots[root]
}

// FieldsForSection returns the document root field names belonging to a
// section, in registry order.
func (r *Registry) FieldsForSection(sectionID string) []string {
	var out []string
	if sectionID == SectionPersonal {
		return r.IdentityFields()
	}
	for _, root := range r.rootOrder() {
		if r.fieldRoots[root] == sectionID {
			out = append(out, root)
		}
	}
	return out
}

// rootOrder yields root field names in a stable order: identity fields
// first, then the non-identity roots in section registry order.
func (r *Registry) rootOrder() []string {
	out := make([]string, 0, len(r.fieldRoots))
	out = append(out, r.identity...)
	for _, section := range r.sections {
		if section == SectionPersonal {
			continue
		}
		for root, s := range r.fieldRoots {
			if s == section {
				out = append(out, root)
			}
		}
	}
	return out
}

// SectionLayout mirrors the editor's column arrangement of sections.
type SectionLayout struct {
	Columns [][]string `json:"columns"`
}

// NormalizeLayout coerces an arbitrary layout value into a valid layout:
// unknown section ids are dropped, duplicates removed, and any legal section
// missing from the input is appended to its default column. It never fails;
// a malformed input yields the default layout.
func (r *Registry) NormalizeLayout(raw any) SectionLayout {
	seen := make(map[string]bool, len(r.sections))
	columns := make([][]string, len(r.columns))
	for i := range columns {
		columns[i] = []string{}
	}

	if obj, ok := raw.(map[string]any); ok {
		if cols, ok := obj["columns"].([]any); ok {
			for i, col := range cols {
				if i >= len(columns) {
					break
				}
				items, ok := col.([]any)
				if !ok {
					continue
				}
				for _, item := range items {
					id, ok := item.(string)
					if !ok || !r.IsSection(id) || seen[id] {
						continue
					}
					seen[id] = true
					columns[i] = append(columns[i], id)
				}
			}
		}
	}

	for i, defaults := range r.columns {
		for _, id := range defaults {
			if !seen[id] {
				seen[id] = true
				columns[i] = append(columns[i], id)
			}
		}
	}
	return SectionLayout{Columns: columns}
}
