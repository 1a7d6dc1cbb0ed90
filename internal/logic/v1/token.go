package v1

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// TokenGenerator produces opaque session tokens.
type TokenGenerator interface {
	NewToken() string
}

const (
	base36Alphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	pseudoTokenChars = 13
)

// PseudoTokenGenerator returns short base-36 tokens from a
// non-cryptographic source. There is no collision check. It is
// intentionally NOT secure and only fit for a load-testing fixture.
type PseudoTokenGenerator struct{}

func (PseudoTokenGenerator) NewToken() string {
	var b strings.Builder
	b.Grow(pseudoTokenChars)
	for range pseudoTokenChars {
		b.WriteByte(base36Alphabet[rand.IntN(len(base36Alphabet))])
	}
	return b.String()
}

// SecureTokenGenerator joins two random UUIDs, 244 random bits in total.
type SecureTokenGenerator struct{}

func (SecureTokenGenerator) NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// NewTokenGenerator picks the generator for the auth.secure_tokens setting.
func NewTokenGenerator(secure bool) TokenGenerator {
	if secure {
		return SecureTokenGenerator{}
	}
	return PseudoTokenGenerator{}
}
