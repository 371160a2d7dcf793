// Package diff computes word-level edit scripts between two strings for
// rendering original-vs-suggested text.
package diff

import "strings"

// Op classifies a diff segment.
type Op string

const (
	OpSame   Op = "same"
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Segment is one token of the edit script.
type Segment struct {
	Type Op     `json:"type"`
	Text string `json:"text"`
}

// Words tokenizes both strings on whitespace and returns a minimal edit
// script computed with longest-common-subsequence dynamic programming.
// Concatenating same+add segments reproduces the target tokens; same+remove
// reproduces the source tokens. Ties prefer emitting an insertion before a
// deletion.
func Words(source, target string) []Segment {
	a := strings.Fields(source)
	b := strings.Fields(target)
	if len(a) == 0 && len(b) == 0 {
		return []Segment{}
	}

	// table[i][j] = LCS length of a[i:] and b[j:].
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	segments := make([]Segment, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			segments = append(segments, Segment{Type: OpSame, Text: a[i]})
			i++
			j++
		case table[i][j+1] >= table[i+1][j]:
			segments = append(segments, Segment{Type: OpAdd, Text: b[j]})
			j++
		default:
			segments = append(segments, Segment{Type: OpRemove, Text: a[i]})
			i++
		}
	}
	for ; i < len(a); i++ {
		segments = append(segments, Segment{Type: OpRemove, Text: a[i]})
	}
	for ; j < len(b); j++ {
		segments = append(segments, Segment{Type: OpAdd, Text: b[j]})
	}
	return segments
}
