// Package auth contains the credential primitives: bcrypt password hashing,
// HS256 access tokens and the authorization gate in front of protected
// operations.
package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 8

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// PasswordHasher hashes passwords and checks candidates against stored hashes.
type PasswordHasher interface {
	// Hash returns a salted one-way hash with the salt and cost embedded.
	Hash(password string) (string, error)

	// Compare returns nil if password matches hash and
	// common.ErrInvalidCredentials if it does not.
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt. Every Hash call draws
// a fresh random salt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", common.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	// nothing longer than the limit was ever hashed, so it cannot match
	if len(password) > maxPasswordBytes {
		return common.ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredentials
	}
	// a stored hash bcrypt cannot parse is a storage fault, not a bad login
	return fmt.Errorf("compare password: %w", err)
}
