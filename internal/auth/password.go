package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once per hasher for Reject.
const dummyPassword = "drink-rating-no-such-admin"

// PasswordHasher hashes and checks admin passwords with bcrypt.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher creates a hasher using the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	// An invalid cost leaves dummy empty; Hash reports the same cost error.
	dummy, _ := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password matches hash. A malformed hash never matches.
func (h *PasswordHasher) Matches(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// Reject compares password against a hash of the hasher's own cost and
// discards the result. Login calls it for unknown usernames so they take as
// long to refuse as a wrong password.
func (h *PasswordHasher) Reject(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
