package miniusers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity claim embedded in every session token: subject
// id, email, role, and the registered expiry/issued-at pair. The server
// keeps no session table; signature and expiry are the whole story.
type Claims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email,omitempty"`
	UserRole UserRole `json:"role,omitempty"`
}

// UserID returns the subject parsed as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the role claim
func (c *Claims) Role() UserRole {
	return c.UserRole
}

// HasRole checks if the claim carries a specific role
func (c *Claims) HasRole(role UserRole) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
