package review

import "strings"

// redactIdentity returns a copy of cvData with every non-empty identity
// field replaced by the sentinel value. Empty identity fields keep their
// value so emptiness is not revealed as populated. The input is not
// mutated; only the top level is copied since identity fields are roots.
func redactIdentity(cvData map[string]any, reg *Registry) map[string]any {
	out := make(map[string]any, len(cvData))
	for k, v := range cvData {
		out[k] = v
	}
	for _, field := range reg.IdentityFields() {
		if val, ok := out[field].(string); ok && strings.TrimSpace(val) != "" {
			out[field] = RedactedSentinel
		}
	}
	return out
}
