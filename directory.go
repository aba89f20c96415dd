package miniusers

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Directory implements the user-directory CRUD operations over a
// CredentialStore. Authentication is enforced one layer up, at the HTTP
// boundary; every method here assumes the caller already holds a valid
// identity claim.
type Directory struct {
	store  CredentialStore
	logger Logger
}

// NewDirectory returns a new Directory service
func NewDirectory(store CredentialStore) *Directory {
	return &Directory{
		store:  store,
		logger: defLogger{},
	}
}

func (d *Directory) WithLogger(logger Logger) *Directory {
	d.logger = logger
	return d
}

// List returns every user record, credential hash stripped, in store
// insertion order.
func (d *Directory) List(ctx context.Context) ([]Record, error) {
	users, err := d.store.List(ctx)
	if err != nil {
		d.logger.Error("Directory list error", "error", err)
		return nil, err
	}

	records := make([]Record, 0, len(users))
	for _, u := range users {
		records = append(records, u.Public())
	}
	return records, nil
}

// Create inserts a new user record. Password is optional: when omitted
// the fixed placeholder credential is hashed instead, which leaves the
// account with a guessable password until it is reset.
//
// The uniqueness pre-check below and the subsequent insert are not one
// atomic step; two concurrent creates for the same email can both pass
// the check. The store's unique index is the actual guard, the loser
// surfaces a storage error rather than ErrEmailInUse.
func (d *Directory) Create(ctx context.Context, name, email, password string) (*Record, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		return nil, ErrMissingFields
	}

	existing, err := d.store.FindByEmail(ctx, email)
	if err != nil {
		d.logger.Error("Directory create lookup error", "error", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	if password == "" {
		d.logger.Info("Directory create without password, using placeholder credential", "email", email)
		password = DefaultPlaceholderPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		d.logger.Error("Directory create hash error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash credential")
	}

	created, err := d.store.Insert(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		d.logger.Error("Directory create insert error", "error", err)
		return nil, err
	}

	record := created.Public()
	return &record, nil
}

// Update applies a partial update to name and/or role. Email is never a
// mutable field; it is fixed at creation time.
func (d *Directory) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*Record, error) {
	if patch.Role != nil && !IsValidRole(*patch.Role) {
		return nil, errors.New("invalid role", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"role": *patch.Role})
	}

	updated, err := d.store.UpdateByID(ctx, id, patch)
	if err != nil {
		d.logger.Error("Directory update error", "error", err)
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	record := updated.Public()
	return &record, nil
}

// Delete removes a record by id. Deleting an id that does not exist
// fails with ErrNotFound, deleting twice succeeds once.
func (d *Directory) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := d.store.DeleteByID(ctx, id)
	if err != nil {
		d.logger.Error("Directory delete error", "error", err)
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
