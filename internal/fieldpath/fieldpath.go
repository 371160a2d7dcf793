// Package fieldpath addresses single leaf values inside a dynamically-typed
// document tree of map[string]any and []any nodes. Paths use dotted keys and
// bracketed indexes, e.g. "education[1].description". The package has no
// knowledge of document semantics; it is a generic structural primitive.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Token is one step of a parsed path: either a map key or an array index.
type Token struct {
	Key   string
	Index int
	IsKey bool
}

// ErrNotFound reports that some intermediate key is absent or an index is
// out of bounds.
var ErrNotFound = errors.New("path not found")

// ErrTypeMismatch reports that the path resolved to a non-string leaf or
// traversed a node of the wrong kind.
var ErrTypeMismatch = errors.New("type mismatch")

// Tokenize splits a path string into an ordered token sequence.
func Tokenize(path string) ([]Token, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("empty path")
	}

	var tokens []Token
	i := 0
	for i < len(trimmed) {
		switch trimmed[i] {
		case '.':
			if i == 0 || len(tokens) == 0 {
				return nil, fmt.Errorf("path %q: leading dot", path)
			}
			i++
			if i >= len(trimmed) || trimmed[i] == '.' || trimmed[i] == '[' {
				return nil, fmt.Errorf("path %q: expected key after dot", path)
			}
		case '[':
			end := strings.IndexByte(trimmed[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index", path)
			}
			idxText := trimmed[i+1 : i+end]
			idx, err := strconv.Atoi(strings.TrimSpace(idxText))
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: invalid index %q", path, idxText)
			}
			tokens = append(tokens, Token{Index: idx})
			i += end + 1
		default:
			end := i
			for end < len(trimmed) && trimmed[end] != '.' && trimmed[end] != '[' {
				end++
			}
			tokens = append(tokens, Token{Key: trimmed[i:end], IsKey: true})
			i = end
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	return tokens, nil
}

// Root returns the first key of the path, or "" if the path is invalid or
// starts with an index.
func Root(path string) string {
	tokens, err := Tokenize(path)
	if err != nil || !tokens[0].IsKey {
		return ""
	}
	return tokens[0].Key
}

// Resolve walks the document along path and returns the string leaf.
// It fails with ErrNotFound for missing keys or out-of-range indexes and
// with ErrTypeMismatch when the leaf is not a string.
func Resolve(doc map[string]any, path string) (string, error) {
	tokens, err := Tokenize(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	node, err := walk(doc, tokens)
	if err != nil {
		return "", err
	}
	leaf, ok := node.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, path)
	}
	return leaf, nil
}

func walk(doc map[string]any, tokens []Token) (any, error) {
	var node any = doc
	for _, tok := range tokens {
		if tok.IsKey {
			obj, ok := node.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: key %q on non-object", ErrTypeMismatch, tok.Key)
			}
			child, ok := obj[tok.Key]
			if !ok {
				return nil, fmt.Errorf("%w: missing key %q", ErrNotFound, tok.Key)
			}
			node = child
			continue
		}
		arr, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: index %d on non-array", ErrTypeMismatch, tok.Index)
		}
		if tok.Index >= len(arr) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrNotFound, tok.Index)
		}
		node = arr[tok.Index]
	}
	return node, nil
}

// Apply returns a new document with the string leaf at path replaced by
// value. Only nodes on the path are cloned; every unrelated subtree is
// shared by reference with the input. The input document is never mutated.
func Apply(doc map[string]any, path, value string) (map[string]any, error) {
	tokens, err := Tokenize(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	// Fail before cloning so errors never produce partial copies.
	if _, err := Resolve(doc, path); err != nil {
		return nil, err
	}
	out, err := setAlongPath(doc, tokens, value)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func setAlongPath(node any, tokens []Token, value string) (any, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	tok := tokens[0]
	if tok.IsKey {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: key %q on non-object", ErrTypeMismatch, tok.Key)
		}
		child, ok := obj[tok.Key]
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrNotFound, tok.Key)
		}
		replaced, err := setAlongPath(child, tokens[1:], value)
		if err != nil {
			return nil, err
		}
		clone := make(map[string]any, len(obj))
		for k, v := range obj {
			clone[k] = v
		}
		clone[tok.Key] = replaced
		return clone, nil
	}
	arr, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: index %d on non-array", ErrTypeMismatch, tok.Index)
	}
	if tok.Index >= len(arr) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrNotFound, tok.Index)
	}
	replaced, err := setAlongPath(arr[tok.Index], tokens[1:], value)
	if err != nil {
		return nil, err
	}
	clone := make([]any, len(arr))
	copy(clone, arr)
	clone[tok.Index] = replaced
	return clone, nil
}
