package miniusers

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeMissingToken       = "auth_missing_token"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeMissingFields      = "directory_missing_fields"
	TextCodeEmailInUse         = "directory_email_in_use"
	TextCodeNotFound           = "directory_not_found"
)

// ErrInvalidCredentials is returned for both unknown email and password
// mismatch so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMissingToken is returned when a request carries no bearer credential.
var ErrMissingToken = errors.New("missing authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token fails signature verification
// or cannot be parsed.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens consumed past their expiry.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrMissingFields is returned when a create payload omits name or email.
var ErrMissingFields = errors.New("missing fields", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingFields).
	WithCode(errors.CodeBadRequest)

// ErrEmailInUse is returned when a create would duplicate an email.
var ErrEmailInUse = errors.New("email in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(errors.CodeConflict)

// ErrNotFound is returned when an id does not resolve to a user record.
var ErrNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is the bcrypt mismatch sentinel.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input to the password hasher.
var ErrNoEmptyString = errors.New("empty string not allowed", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if errors.Is(err, ErrTokenExpired) || errors.Is(err, jwt.ErrTokenExpired) {
		return true
	}
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError will check for tokens that failed parsing or
// signature verification
func IsMalformedError(err error) bool {
	if errors.Is(err, ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenMalformed) {
		return true
	}
	return hasTextCode(err, TextCodeTokenMalformed)
}

func hasTextCode(err error, code string) bool {
	var rich *errors.Error
	return errors.As(err, &rich) && rich.TextCode == code
}
