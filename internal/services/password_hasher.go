package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

const bcryptHashLength = 60

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// ErrEmptyInput is returned when a password or hash argument is empty.
var ErrEmptyInput = errors.New("empty input")

// PasswordHasher hashes and checks passwords with bcrypt. Hashing is
// deliberately slow; keep it off latency-sensitive shared paths.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or DefaultBcryptCost when cost <= 0.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash. Two calls with the same password never
// return the same string.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password cannot be empty", ErrEmptyInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A malformed hash and a wrong
// password both return false.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	if password == "" {
		return false, fmt.Errorf("%w: password cannot be empty", ErrEmptyInput)
	}
	if hash == "" {
		return false, fmt.Errorf("%w: hash cannot be empty", ErrEmptyInput)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// LooksLikeHash is a shape check for diagnostics. Never use it to make a
// security decision.
func LooksLikeHash(s string) bool {
	if len(s) != bcryptHashLength {
		return false
	}
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
