package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash stored for a local account. Passwords
// over bcrypt's 72-byte limit are a common.ErrorValidation.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
	}
	return hash, err
}

// CheckPassword reports whether password matches hash. Errors other than a
// mismatch (a corrupt hash) are returned.
func CheckPassword(hash []byte, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	// no stored hash can match a password too long to hash
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
