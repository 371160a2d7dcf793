package review

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseModelOutput coerces raw model text into the loose output shape.
// It tries a strict parse, then the contents of a fenced code block, then
// the slice between the first "{" and last "}".
func parseModelOutput(text string) (rawModelOutput, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return rawModelOutput{}, fmt.Errorf("empty model output")
	}

	candidates := []string{trimmed}
	if fenced, ok := extractFencedBlock(trimmed); ok {
		candidates = append(candidates, fenced)
	}
	if sliced, ok := sliceBraces(trimmed); ok {
		candidates = append(candidates, sliced)
	}

	var lastErr error
	for _, candidate := range candidates {
		var out rawModelOutput
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}
	return rawModelOutput{}, fmt.Errorf("model output is not valid JSON: %w", lastErr)
}

func extractFencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || isFenceTag(firstLine) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	block := strings.TrimSpace(rest[:end])
	return block, block != ""
}

func isFenceTag(line string) bool {
	for _, r := range line {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func sliceBraces(text string) (string, bool) {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last <= first {
		return "", false
	}
	return text[first : last+1], true
}
