// Package domain holds validated primitives shared across layers. Values are
// parsed once at the trust boundary and carried as typed strings afterwards.
package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "pidstore/pkg/domain-errors"
)

const maxDOILength = 255

// resolverPrefixes are stripped from input so a pasted resolver link parses
// to the bare DOI.
var resolverPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// DOI is a normalised Digital Object Identifier: lowercase "10.<registrant>/<suffix>".
type DOI string

// ParseDOI trims, strips resolver prefixes and lowercases s, then validates it.
func ParseDOI(s string) (DOI, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range resolverPrefixes {
		if strings.HasPrefix(lower, p) {
			lower = lower[len(p):]
			break
		}
	}
	if lower == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "doi is required")
	}
	if !utf8.ValidString(lower) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "doi must be valid UTF-8")
	}
	if len(lower) > maxDOILength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "doi must be 255 characters or less")
	}
	prefix, suffix, ok := strings.Cut(lower, "/")
	if !ok || suffix == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "doi must have the form 10.<registrant>/<suffix>")
	}
	if !validPrefix(prefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "doi prefix must be 10.<digits>")
	}
	for _, r := range suffix {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "doi suffix must not contain whitespace or control characters")
		}
	}
	return DOI(lower), nil
}

func validPrefix(p string) bool {
	rest, ok := strings.CutPrefix(p, "10.")
	if !ok || rest == "" {
		return false
	}
	for _, part := range strings.Split(rest, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func (d DOI) String() string { return string(d) }

// Prefix returns the registrant part, e.g. "10.5555".
func (d DOI) Prefix() string {
	p, _, _ := strings.Cut(string(d), "/")
	return p
}

// Suffix returns everything after the first "/".
func (d DOI) Suffix() string {
	_, s, _ := strings.Cut(string(d), "/")
	return s
}

// ObjectID identifies the object a DOI is assigned to.
type ObjectID uuid.UUID

// ParseObjectID validates a non-nil UUID.
func ParseObjectID(s string) (ObjectID, error) {
	if s == "" {
		return ObjectID{}, dErrors.New(dErrors.CodeInvalidInput, "object id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ObjectID{}, dErrors.New(dErrors.CodeInvalidInput, "object id must be a UUID")
	}
	if u == uuid.Nil {
		return ObjectID{}, dErrors.New(dErrors.CodeInvalidInput, "object id cannot be nil")
	}
	return ObjectID(u), nil
}

func (id ObjectID) String() string { return uuid.UUID(id).String() }
