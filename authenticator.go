package miniusers

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther issues and verifies session tokens against a credential store.
type Auther struct {
	store        CredentialStore
	signingKey   []byte
	tokenExp     int
	issuer       string
	logger       Logger
	tokenService *TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		store:        store,
		signingKey:   []byte(opts.GetSigningKey()),
		tokenExp:     opts.GetTokenExpiration(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExp,
		s.issuer,
		logger,
	)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokenService
}

// IssueToken verifies the email/password pair and mints a signed session
// token. Unknown email and password mismatch produce the same
// ErrInvalidCredentials so responses cannot be used to enumerate users.
func (s *Auther) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("IssueToken store lookup error", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to look up credentials")
	}

	if user == nil {
		s.logger.Debug("IssueToken unknown email", "email", email)
		return "", ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("IssueToken password mismatch", "email", email)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		s.logger.Error("IssueToken token generation error", "error", err)
		return "", err
	}

	return token, nil
}

// VerifyToken validates a raw bearer token and returns the embedded
// identity claim. The subject is not re-checked against the store; a
// token stays valid until expiry even if the record was deleted.
func (s *Auther) VerifyToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("VerifyToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

var _ Authenticator = (*Auther)(nil)
