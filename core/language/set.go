// Package language tracks which supported language a conversation is
// currently held in.
package language

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrEmptySet is returned when a Set would contain no languages.
var ErrEmptySet = errors.New("language: supported language set is empty")

// Set is an immutable set of language codes a session can route to.
type Set struct {
	codes []string
}

// NewSet builds a Set from codes. Codes are lowercased and deduplicated,
// order of first appearance is kept.
func NewSet(codes ...string) (Set, error) {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		code = Normalize(code)
		if code == "" {
			return Set{}, fmt.Errorf("language: empty language code in set")
		}
		if !slices.Contains(normalized, code) {
			normalized = append(normalized, code)
		}
	}

	if len(normalized) == 0 {
		return Set{}, ErrEmptySet
	}

	return Set{codes: normalized}, nil
}

// Normalize lowercases and trims a configured language code the way NewSet
// does.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// MustNewSet is like NewSet but panics on error. Meant for package level
// defaults.
func MustNewSet(codes ...string) Set {
	set, err := NewSet(codes...)
	if err != nil {
		panic(err)
	}
	return set
}

func (s Set) Contains(code string) bool {
	return code != "" && slices.Contains(s.codes, code)
}

// Codes returns a copy of the codes in the set.
func (s Set) Codes() []string { return slices.Clone(s.codes) }

func (s Set) Len() int { return len(s.codes) }

func (s Set) String() string { return strings.Join(s.codes, ",") }
