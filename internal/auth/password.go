package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for stored account passwords.
var passwordCost = bcrypt.DefaultCost

// HashPassword generates a bcrypt hash of the password.
// bcrypt reads at most 72 bytes, so longer multibyte passwords are rejected
// with ErrInvalidPassword instead of being silently truncated.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidPassword
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports an error unless password matches the stored hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
