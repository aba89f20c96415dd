package client_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	miniusers "github.com/MarxWellB/miniusers"
	"github.com/MarxWellB/miniusers/client"
)

type fakeAPI struct {
	hasToken bool

	listFn   func(ctx context.Context) ([]miniusers.Record, error)
	createFn func(ctx context.Context, name, email, password string) (*miniusers.Record, error)
	updateFn func(ctx context.Context, id uuid.UUID, patch miniusers.UserPatch) (*miniusers.Record, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

var _ client.DirectoryAPI = (*fakeAPI)(nil)

func (f *fakeAPI) HasToken() bool { return f.hasToken }

func (f *fakeAPI) ListUsers(ctx context.Context) ([]miniusers.Record, error) {
	return f.listFn(ctx)
}

func (f *fakeAPI) CreateUser(ctx context.Context, name, email, password string) (*miniusers.Record, error) {
	return f.createFn(ctx, name, email, password)
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id uuid.UUID, patch miniusers.UserPatch) (*miniusers.Record, error) {
	return f.updateFn(ctx, id, patch)
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

func record(name, email string) miniusers.Record {
	return miniusers.Record{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
		Role:  miniusers.RoleUser,
	}
}

func remoteErr(msg string) error {
	return errors.New(msg, errors.CategoryOperation)
}

func seededCache(t *testing.T, api *fakeAPI, records ...miniusers.Record) *client.SessionCache {
	t.Helper()

	api.hasToken = true
	api.listFn = func(context.Context) ([]miniusers.Record, error) {
		return records, nil
	}

	cache := client.NewSessionCache(api)
	require.NoError(t, cache.Refresh(context.Background()))
	return cache
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	ann := record("Ann", "ann@example.com")
	bob := record("Bob", "bob@example.com")

	t.Run("populates synced entries", func(t *testing.T) {
		cache := seededCache(t, &fakeAPI{}, ann, bob)

		entries := cache.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "ann@example.com", entries[0].Record.Email)
		assert.Equal(t, client.StateSynced, entries[0].State)
		assert.Equal(t, client.StateSynced, entries[1].State)
		assert.False(t, cache.Loading())
		assert.Empty(t, cache.Err())
	})

	t.Run("requires a stored token", func(t *testing.T) {
		cache := client.NewSessionCache(&fakeAPI{hasToken: false})
		err := cache.Refresh(ctx)
		assert.ErrorIs(t, err, client.ErrNotAuthenticated)
	})

	t.Run("failure clears the cache", func(t *testing.T) {
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)
		require.Len(t, cache.Entries(), 1)

		api.listFn = func(context.Context) ([]miniusers.Record, error) {
			return nil, remoteErr("boom")
		}

		err := cache.Refresh(ctx)
		require.Error(t, err)
		assert.Empty(t, cache.Entries())
		assert.Equal(t, "could not load users", cache.Err())
	})

	t.Run("loading flag wraps the call", func(t *testing.T) {
		api := &fakeAPI{hasToken: true}
		cache := client.NewSessionCache(api)

		var midCall bool
		api.listFn = func(context.Context) ([]miniusers.Record, error) {
			midCall = cache.Loading()
			return nil, nil
		}

		require.NoError(t, cache.Refresh(ctx))
		assert.True(t, midCall)
		assert.False(t, cache.Loading())
	})
}

func TestSubmitCreate(t *testing.T) {
	ctx := context.Background()
	ann := record("Ann", "ann@example.com")

	t.Run("waits for the server, then prepends", func(t *testing.T) {
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)

		bob := record("Bob", "bob@example.com")
		var cacheLenMidCall int
		api.createFn = func(_ context.Context, name, email, password string) (*miniusers.Record, error) {
			// not optimistic: nothing is added until the server answers
			cacheLenMidCall = len(cache.Entries())
			assert.Equal(t, "Bob", name)
			assert.Equal(t, "", password)
			return &bob, nil
		}

		require.NoError(t, cache.SubmitCreate(ctx, "Bob", "bob@example.com"))
		assert.Equal(t, 1, cacheLenMidCall)

		entries := cache.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, bob.ID, entries[0].Record.ID)
		assert.Equal(t, client.StateSynced, entries[0].State)
	})

	t.Run("local validation skips the network", func(t *testing.T) {
		called := false
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)
		api.createFn = func(context.Context, string, string, string) (*miniusers.Record, error) {
			called = true
			return nil, nil
		}

		err := cache.SubmitCreate(ctx, "  ", "bob@example.com")
		assert.ErrorIs(t, err, miniusers.ErrMissingFields)
		assert.False(t, called)
		assert.Equal(t, "name and email are required", cache.Err())
		assert.Len(t, cache.Entries(), 1)
	})

	t.Run("server failure leaves the cache alone", func(t *testing.T) {
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)
		api.createFn = func(context.Context, string, string, string) (*miniusers.Record, error) {
			return nil, remoteErr("boom")
		}

		err := cache.SubmitCreate(ctx, "Bob", "bob@example.com")
		require.Error(t, err)
		assert.Len(t, cache.Entries(), 1)
		assert.Equal(t, "could not create user", cache.Err())
	})
}

func TestSubmitUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("patch is visible before the server answers", func(t *testing.T) {
		ann := record("Ann", "ann@example.com")
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)

		var midCall client.Entry
		server := ann
		server.Name = "Ann Smith"
		api.updateFn = func(context.Context, uuid.UUID, miniusers.UserPatch) (*miniusers.Record, error) {
			midCall = cache.Entries()[0]
			return &server, nil
		}

		name := "Ann Smith"
		require.NoError(t, cache.SubmitUpdate(ctx, ann.ID, miniusers.UserPatch{Name: &name}))

		assert.Equal(t, "Ann Smith", midCall.Record.Name)
		assert.Equal(t, client.StatePendingUpdate, midCall.State)

		entries := cache.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "Ann Smith", entries[0].Record.Name)
		assert.Equal(t, client.StateSynced, entries[0].State)
	})

	t.Run("failure keeps the patch applied", func(t *testing.T) {
		ann := record("Ann", "ann@example.com")
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)
		api.updateFn = func(context.Context, uuid.UUID, miniusers.UserPatch) (*miniusers.Record, error) {
			return nil, remoteErr("boom")
		}

		name := "Ann Smith"
		err := cache.SubmitUpdate(ctx, ann.ID, miniusers.UserPatch{Name: &name})
		require.Error(t, err)

		// the optimistic patch stays, only the state settles back
		entries := cache.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "Ann Smith", entries[0].Record.Name)
		assert.Equal(t, client.StateSynced, entries[0].State)
		assert.Equal(t, "could not update user", cache.Err())
	})
}

func TestSubmitDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("entry disappears before the server answers", func(t *testing.T) {
		ann := record("Ann", "ann@example.com")
		bob := record("Bob", "bob@example.com")
		api := &fakeAPI{}
		cache := seededCache(t, api, ann, bob)

		var midCall []client.Entry
		api.deleteFn = func(context.Context, uuid.UUID) error {
			midCall = cache.Entries()
			return nil
		}

		require.NoError(t, cache.SubmitDelete(ctx, ann.ID))

		require.Len(t, midCall, 1)
		assert.Equal(t, bob.ID, midCall[0].Record.ID)

		entries := cache.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, bob.ID, entries[0].Record.ID)
	})

	t.Run("failure rolls the entry back at the end of the list", func(t *testing.T) {
		ann := record("Ann", "ann@example.com")
		bob := record("Bob", "bob@example.com")
		api := &fakeAPI{}
		cache := seededCache(t, api, ann, bob)
		api.deleteFn = func(context.Context, uuid.UUID) error {
			return remoteErr("boom")
		}

		err := cache.SubmitDelete(ctx, ann.ID)
		require.Error(t, err)

		entries := cache.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, bob.ID, entries[0].Record.ID)
		assert.Equal(t, ann.ID, entries[1].Record.ID)
		assert.Equal(t, client.StateRolledBack, entries[1].State)
		assert.Equal(t, "could not delete user", cache.Err())
	})

	t.Run("unknown id still calls the server", func(t *testing.T) {
		ann := record("Ann", "ann@example.com")
		api := &fakeAPI{}
		cache := seededCache(t, api, ann)

		called := false
		api.deleteFn = func(context.Context, uuid.UUID) error {
			called = true
			return nil
		}

		require.NoError(t, cache.SubmitDelete(ctx, uuid.New()))
		assert.True(t, called)
		assert.Len(t, cache.Entries(), 1)
	})
}

func TestFilter(t *testing.T) {
	ann := record("Ann", "ann@example.com")
	bob := record("Bob", "bob@widgets.io")
	cache := seededCache(t, &fakeAPI{}, ann, bob)

	t.Run("matches name case-insensitively", func(t *testing.T) {
		out := cache.Filter("an")
		require.Len(t, out, 1)
		assert.Equal(t, "Ann", out[0].Record.Name)
	})

	t.Run("matches email", func(t *testing.T) {
		out := cache.Filter("WIDGETS")
		require.Len(t, out, 1)
		assert.Equal(t, "Bob", out[0].Record.Name)
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Len(t, cache.Filter(""), 2)
	})

	t.Run("does not mutate the cache", func(t *testing.T) {
		_ = cache.Filter("nobody-matches-this")
		assert.Len(t, cache.Entries(), 2)
	})
}

func TestClearError(t *testing.T) {
	api := &fakeAPI{}
	cache := seededCache(t, api)
	api.listFn = func(context.Context) ([]miniusers.Record, error) {
		return nil, remoteErr("boom")
	}

	require.Error(t, cache.Refresh(context.Background()))
	require.NotEmpty(t, cache.Err())

	cache.ClearError()
	assert.Empty(t, cache.Err())
}
