package miniusers_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	miniusers "github.com/MarxWellB/miniusers"
)

func TestMemoryStoreInsert(t *testing.T) {
	ctx := context.Background()
	store := miniusers.NewMemoryStore()

	created, err := store.Insert(ctx, &miniusers.User{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, miniusers.RoleUser, created.Role)
	assert.NotNil(t, created.CreatedAt)
	assert.NotNil(t, created.UpdatedAt)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := store.Insert(ctx, &miniusers.User{
			Name:         "Ann Again",
			Email:        "ann@example.com",
			PasswordHash: "hash",
		})
		assert.ErrorIs(t, err, miniusers.ErrEmailInUse)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		id := uuid.New()
		created, err := store.Insert(ctx, &miniusers.User{
			ID:           id,
			Name:         "Bob",
			Email:        "bob@example.com",
			Role:         miniusers.RoleAdmin,
			PasswordHash: "hash",
		})
		require.NoError(t, err)
		assert.Equal(t, id, created.ID)
		assert.Equal(t, miniusers.RoleAdmin, created.Role)
	})
}

func TestMemoryStoreFind(t *testing.T) {
	ctx := context.Background()
	store := miniusers.NewMemoryStore()

	created, err := store.Insert(ctx, &miniusers.User{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	byEmail, err := store.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ann@example.com", byID.Email)

	t.Run("missing records return nil without error", func(t *testing.T) {
		u, err := store.FindByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, u)

		u, err = store.FindByID(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("results are copies", func(t *testing.T) {
		byID.Name = "Mutated"

		fresh, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", fresh.Name)
	})
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := miniusers.NewMemoryStore()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, &miniusers.User{
			Name:         fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: "hash",
		})
		require.NoError(t, err)
	}

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	for i, u := range users {
		assert.Equal(t, fmt.Sprintf("user%d@example.com", i), u.Email)
	}
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := miniusers.NewMemoryStore()

	created, err := store.Insert(ctx, &miniusers.User{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	name := "Ann Smith"
	updated, err := store.UpdateByID(ctx, created.ID, miniusers.UserPatch{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Ann Smith", updated.Name)
	assert.Equal(t, "ann@example.com", updated.Email)

	missing, err := store.UpdateByID(ctx, uuid.New(), miniusers.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := store.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
