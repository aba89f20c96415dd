package miniusers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
}

// CredentialStore is the keyed document store the directory and the
// authenticator share. Operations are atomic at single-record
// granularity; lookups return (nil, nil) when the record is absent.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Insert(ctx context.Context, record *User) (*User, error)
	UpdateByID(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*User, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	IssueToken(ctx context.Context, email, password string) (string, error)
	VerifyToken(raw string) (*Claims, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MINIUSERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MINIUSERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MINIUSERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
