package refgraph

import (
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// escapeToken encodes a raw object key as a single RFC 6901 reference
// token ("~" becomes "~0", "/" becomes "~1").
func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

func itoa(i int) string { return strconv.Itoa(i) }

// decodeTokens splits and unescapes a JSON Pointer string per RFC 6901,
// delegating the token grammar to go-openapi/jsonpointer so the engine
// shares its escaping rules with the rest of the go-openapi ecosystem.
func decodeTokens(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, &InvalidPointerError{Pointer: pointer, Cause: err}
	}
	return ptr.DecodedTokens(), nil
}

// GetPointer navigates v by the RFC 6901 pointer string and returns the
// node found there. An empty string targets v itself.
func GetPointer(v any, pointer string) (any, error) {
	tokens, err := decodeTokens(pointer)
	if err != nil {
		return nil, err
	}
	cur := v
	for i, tok := range tokens {
		next, ok := getToken(cur, tok)
		if !ok {
			return nil, &MissingPointerError{Pointer: "/" + strings.Join(tokens[:i+1], "/")}
		}
		cur = next
	}
	return cur, nil
}

func getToken(node any, token string) (any, bool) {
	switch t := node.(type) {
	case Object:
		return t.Get(token)
	case Array:
		idx, ok := canonicalIndex(token, len(t))
		if !ok {
			return nil, false
		}
		return t[idx], true
	default:
		return nil, false
	}
}

// canonicalIndex validates token as a canonical RFC 6901 array index: a
// non-negative decimal integer with no leading zeros other than "0"
// itself, in range for a slice of length n.
func canonicalIndex(token string, n int) (int, bool) {
	if token == "" {
		return 0, false
	}
	if token == "0" {
		return 0, true
	}
	if token[0] == '0' || token[0] == '-' {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(token)
	if err != nil || idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// SetPointer navigates v by pointer and replaces the node found there
// with value, mutating in place. Every token but the last must resolve to
// an existing node; the last may name a new key of an Object, but must be
// an in-range index of an Array. SetPointer does not create intermediate
// containers (the
// Bundler only ever grafts underneath a container it created itself).
func SetPointer(v any, pointer string, value any) error {
	tokens, err := decodeTokens(pointer)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return &InvalidPointerError{Pointer: pointer, Cause: strErr("cannot set the document root")}
	}
	cur := v
	for _, tok := range tokens[:len(tokens)-1] {
		next, ok := getToken(cur, tok)
		if !ok {
			return &MissingPointerError{Pointer: pointer}
		}
		cur = next
	}
	last := tokens[len(tokens)-1]
	switch t := cur.(type) {
	case Object:
		t.Set(last, value)
		return nil
	case Array:
		idx, ok := canonicalIndex(last, len(t))
		if !ok {
			return &MissingPointerError{Pointer: pointer}
		}
		t[idx] = value
		return nil
	default:
		return &MissingPointerError{Pointer: pointer}
	}
}

type strErr string

func (s strErr) Error() string { return string(s) }
