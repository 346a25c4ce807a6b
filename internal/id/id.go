// Package id generates prefixed NanoID identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each kind of server entity.
const (
	PrefixUser    = "user"
	PrefixBook    = "book"
	PrefixPost    = "post"
	PrefixComment = "cmt"
	PrefixLike    = "like"
	PrefixToken   = "tok"
)

const nanoLength = 21

// Generate returns prefix + "-" + a 21-character URL-safe NanoID,
// e.g. "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New(nanoLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate is Generate for callers that cannot proceed without an id.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(err)
	}
	return v
}

// HasPrefix reports whether v was generated with prefix.
func HasPrefix(v, prefix string) bool {
	rest, ok := strings.CutPrefix(v, prefix+"-")
	return ok && len(rest) == nanoLength
}
