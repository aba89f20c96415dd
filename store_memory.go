package miniusers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory CredentialStore. Records are kept in
// insertion order, matching what the SQL store gives back, so List is
// stable for unchanged data. Used by tests and the dev seed path.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*User
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.Email == email {
			return cloneUser(r), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			return cloneUser(r), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Insert(ctx context.Context, record *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepareUserDefaults(record)

	// insert-time uniqueness guard, same as the unique index in SQL
	for _, r := range m.records {
		if r.Email == record.Email {
			return nil, ErrEmailInUse
		}
	}

	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}

	m.records = append(m.records, cloneUser(record))
	return cloneUser(record), nil
}

func (m *MemoryStore) UpdateByID(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.ID != id {
			continue
		}
		if patch.Name != nil {
			r.Name = *patch.Name
		}
		if patch.Role != nil {
			r.Role = *patch.Role
		}
		now := time.Now()
		r.UpdatedAt = &now
		return cloneUser(r), nil
	}
	return nil, nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*User, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, cloneUser(r))
	}
	return out, nil
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
