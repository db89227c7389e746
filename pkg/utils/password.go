package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password. bcrypt only looks at the
// first 72 bytes, so longer passwords are rejected instead of truncated.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrValidation("password must be at most 72 bytes")
	}
	return string(hash), err
}

// CheckPassword compares a login attempt with the stored hash. An empty hash
// never matches.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
