package miniusers

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPlaceholderPassword is the credential used when a directory
// create omits the password. Part of the API contract, and a known
// security smell: every record created this way shares a guessable
// password until it is reset.
const DefaultPlaceholderPassword = "Temp123!"

const bcryptCost = 10

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
