package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/store/sqlite"
)

func TestUserCreateAndLookup(t *testing.T) {
	repo := sqlite.NewUserRepo(newTestDB(t))
	ctx := context.Background()

	email := "alice@example.com"
	u := &domain.User{
		Username:       "alice",
		Email:          &email,
		HashedPassword: "hashed",
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.Positive(t, u.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)
	assert.True(t, byName.IsActive)

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestUserLookupMissing(t *testing.T) {
	repo := sqlite.NewUserRepo(newTestDB(t))

	u, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserDuplicateUsername(t *testing.T) {
	repo := sqlite.NewUserRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "alice", HashedPassword: "h"}))
	err := repo.Create(ctx, &domain.User{Username: "alice", HashedPassword: "h"})
	assert.Error(t, err)
}
