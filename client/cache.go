package client

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	miniusers "github.com/MarxWellB/miniusers"
)

// SyncState tags a cache entry's position in the reconciliation state
// machine.
type SyncState string

const (
	// StateSynced means the entry matches the last server response.
	StateSynced SyncState = "synced"
	// StatePendingCreate is a create awaiting server confirmation.
	StatePendingCreate SyncState = "pending_create"
	// StatePendingUpdate is an optimistic patch awaiting confirmation.
	StatePendingUpdate SyncState = "pending_update"
	// StatePendingDelete is an optimistic removal awaiting confirmation.
	StatePendingDelete SyncState = "pending_delete"
	// StateRolledBack marks an entry reinserted after a failed delete.
	StateRolledBack SyncState = "rolled_back"
)

// Entry is one cached record plus its sync state.
type Entry struct {
	Record miniusers.Record
	State  SyncState
}

// DirectoryAPI is the remote surface the cache reconciles against.
// *Client satisfies it; tests substitute fakes.
type DirectoryAPI interface {
	HasToken() bool
	ListUsers(ctx context.Context) ([]miniusers.Record, error)
	CreateUser(ctx context.Context, name, email, password string) (*miniusers.Record, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch miniusers.UserPatch) (*miniusers.Record, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

var _ DirectoryAPI = (*Client)(nil)

// SessionCache mirrors the server's user list locally. Mutations are
// applied optimistically where the contract says so, then confirmed or
// reverted when the server responds. The container is explicit state
// passed to whoever renders it, not an ambient singleton.
//
// One caveat carried over on purpose: a failed update leaves the
// optimistic patch in place. Only delete rolls back. Do not "fix" one
// side without revising the contract.
type SessionCache struct {
	api DirectoryAPI

	mu      sync.Mutex
	entries []Entry
	loading bool
	lastErr string
}

func NewSessionCache(api DirectoryAPI) *SessionCache {
	return &SessionCache{api: api}
}

// Entries returns a snapshot of the cached list.
func (s *SessionCache) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Loading reports whether a refresh is in flight.
func (s *SessionCache) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last surfaced error message, empty when none.
func (s *SessionCache) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets the surfaced error message.
func (s *SessionCache) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Refresh replaces the whole cache with the server's list. It only runs
// with a stored token; on any failure the cache is cleared to empty and
// a generic message surfaced.
func (s *SessionCache) Refresh(ctx context.Context) error {
	if !s.api.HasToken() {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	records, err := s.api.ListUsers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.entries = nil
		s.lastErr = "could not load users"
		return err
	}

	s.entries = make([]Entry, 0, len(records))
	for _, r := range records {
		s.entries = append(s.entries, Entry{Record: r, State: StateSynced})
	}
	return nil
}

// SubmitCreate validates locally, then waits for the server before
// touching the cache: the server-assigned id is what keys the entry, so
// create is not optimistic. Success prepends the returned record.
func (s *SessionCache) SubmitCreate(ctx context.Context, name, email string) error {
	return s.SubmitCreateWithPassword(ctx, name, email, "")
}

// SubmitCreateWithPassword is SubmitCreate with an explicit password;
// empty falls through to the server-side placeholder credential.
func (s *SessionCache) SubmitCreateWithPassword(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		s.mu.Lock()
		s.lastErr = "name and email are required"
		s.mu.Unlock()
		return miniusers.ErrMissingFields
	}

	record, err := s.api.CreateUser(ctx, name, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = "could not create user"
		return err
	}

	s.entries = append([]Entry{{Record: *record, State: StateSynced}}, s.entries...)
	return nil
}

// SubmitUpdate merges the patch into the matching entry before the
// network call resolves. Success replaces the entry with the
// authoritative server record; failure surfaces an error but leaves the
// optimistic patch applied — no rollback.
func (s *SessionCache) SubmitUpdate(ctx context.Context, id uuid.UUID, patch miniusers.UserPatch) error {
	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].Record.ID == id {
			s.entries[i].Record = patch.Apply(s.entries[i].Record)
			s.entries[i].State = StatePendingUpdate
			break
		}
	}
	s.mu.Unlock()

	record, err := s.api.UpdateUser(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = "could not update user"
		for i := range s.entries {
			if s.entries[i].Record.ID == id {
				s.entries[i].State = StateSynced
			}
		}
		return err
	}

	for i := range s.entries {
		if s.entries[i].Record.ID == id {
			s.entries[i].Record = *record
			s.entries[i].State = StateSynced
		}
	}
	return nil
}

// SubmitDelete removes the entry before the call resolves, retaining
// the prior entry. On failure the entry is reinserted, appended rather
// than restored to its original position, and tagged RolledBack.
func (s *SessionCache) SubmitDelete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	var removed *Entry
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.Record.ID == id {
			prior := e
			prior.State = StatePendingDelete
			removed = &prior
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.mu.Unlock()

	err := s.api.DeleteUser(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = "could not delete user"
		if removed != nil {
			restored := *removed
			restored.State = StateRolledBack
			s.entries = append(s.entries, restored)
		}
		return err
	}

	return nil
}

// Filter returns the entries whose name or email contains the query,
// case-insensitively. Pure: the underlying cache is never mutated.
func (s *SessionCache) Filter(query string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Record.Name), q) ||
			strings.Contains(strings.ToLower(e.Record.Email), q) {
			out = append(out, e)
		}
	}
	return out
}
