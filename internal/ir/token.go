package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TokenKindPrefix maps an object class to its one-letter tracking-token
// prefix, matching the "kind prefix + 5 base-36 chars" shape spec.md §3
// specifies.
type TokenKindPrefix byte

const (
	TokenTable      TokenKindPrefix = 't'
	TokenColumn     TokenKindPrefix = 'c'
	TokenIndex      TokenKindPrefix = 'i'
	TokenConstraint TokenKindPrefix = 'k'
	TokenEnum       TokenKindPrefix = 'e'
	TokenDomain     TokenKindPrefix = 'd'
	TokenComposite  TokenKindPrefix = 'o'
	TokenSequence   TokenKindPrefix = 's'
	TokenView       TokenKindPrefix = 'v'
	TokenFunction   TokenKindPrefix = 'f'
	TokenTrigger    TokenKindPrefix = 'g'
	TokenExtension  TokenKindPrefix = 'x'
	TokenPolicy     TokenKindPrefix = 'p'
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// TokenCounter generates tracking tokens from a controller-scoped
// monotonic counter rather than a mutable package global (spec.md §9's
// redesign away from mutable global counters for tracking tokens). The
// zero value is ready to use.
type TokenCounter struct {
	n uint64
}

// Next returns a fresh token for the given kind: the kind's prefix
// followed by 5 base-36 characters derived from the counter, mixed
// with a UUID-derived salt so tokens don't look sequential across
// independent runs.
func (tc *TokenCounter) Next(kind TokenKindPrefix) string {
	tc.n++
	id := uuid.New()
	var salt uint64
	for _, b := range id[:8] {
		salt = salt<<8 | uint64(b)
	}
	mixed := tc.n*2654435761 + salt
	return fmt.Sprintf("%c%s", byte(kind), encodeBase36(mixed, 5))
}

func encodeBase36(v uint64, width int) string {
	var b strings.Builder
	digits := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		digits[i] = base36[v%36]
		v /= 36
	}
	b.Write(digits)
	return b.String()
}

// ValidToken reports whether s has the shape of a tracking token: one
// letter followed by exactly 5 base-36 characters.
func ValidToken(s string) bool {
	if len(s) != 6 || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < 6; i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}
