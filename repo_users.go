package miniusers

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SQLStore is the bun-backed CredentialStore. Inserts go through the
// generic repository so id assignment and defaults behave like every
// other model; lookups and partial updates use the query builder
// directly because they need email/id predicates and column subsets.
type SQLStore struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var _ CredentialStore = (*SQLStore)(nil)

func NewSQLStore(db *bun.DB) *SQLStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &SQLStore{
		repo: repo,
		db:   db,
	}
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "email", email)
}

func (s *SQLStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.findOne(ctx, "id", id.String())
}

func (s *SQLStore) findOne(ctx context.Context, column, value string) (*User, error) {
	record := &User{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
	}
	return record, nil
}

func (s *SQLStore) Insert(ctx context.Context, record *User) (*User, error) {
	prepareUserDefaults(record)

	created, err := s.repo.CreateTx(ctx, s.db, record)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "user insert failed")
	}
	return created, nil
}

func (s *SQLStore) UpdateByID(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	q := s.db.NewUpdate().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id.String()).
		Set("updated_at = current_timestamp")

	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Role != nil {
		q = q.Set("user_role = ?", *patch.Role)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "user update failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "user update failed")
	}
	if affected == 0 {
		return nil, nil
	}

	return s.FindByID(ctx, id)
}

func (s *SQLStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "user delete failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "user delete failed")
	}

	return affected > 0, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*User, error) {
	var records []*User
	err := s.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "user list failed")
	}
	return records, nil
}

// CreateSchema creates the users table if it does not exist. Called once
// at boot by the server binary.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create users schema")
	}
	return nil
}
