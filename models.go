package miniusers

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned on creation
	RoleUser UserRole = "user"
	// RoleAdmin is an administrative role
	RoleAdmin UserRole = "admin"
)

// User is the user model. PasswordHash never leaves the process, every
// API response goes through Public first.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Record is the outward facing projection of a User: everything except
// the credential hash.
type Record struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  UserRole  `json:"role"`
}

// Public returns the record projection of the user.
func (u *User) Public() Record {
	return Record{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserPatch carries the mutable fields of an update. Pointer fields
// distinguish absent from set-to-empty. Email is not here on purpose,
// it is fixed at creation time.
type UserPatch struct {
	Name *string   `json:"name,omitempty"`
	Role *UserRole `json:"role,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Role == nil
}

// Apply merges the patch into a record copy.
func (p UserPatch) Apply(r Record) Record {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Role != nil {
		r.Role = *p.Role
	}
	return r
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
