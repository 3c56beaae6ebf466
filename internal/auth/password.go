package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordLength is the most bcrypt will hash. Longer input is rejected
// rather than truncated.
const maxPasswordLength = 72

// PasswordHasher hashes and verifies account passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plaintext. Passwords over 72 bytes
// yield ErrPasswordTooLong.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("empty password")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is
// indistinguishable from a wrong password. Overlong input never matches,
// since bcrypt would otherwise compare only its first 72 bytes.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if digest == "" || len(plaintext) > maxPasswordLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
