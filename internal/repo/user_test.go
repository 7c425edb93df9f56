package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestUserRepo_CreateAndLookup(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	created := userFixture(t, r, "alice")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := r.Users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byEmail, err := r.Users.GetByEmail(ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := r.Users.GetByUsername(ctx, created.Username)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	r, _ := newTestRepos(t)
	existing := userFixture(t, r, "alice")

	_, err := r.Users.Create(context.Background(), domain.User{
		Username:     "someone_else_" + uuid.NewString()[:8],
		Email:        existing.Email,
		PasswordHash: "x",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_Create_DuplicateUsername(t *testing.T) {
	r, _ := newTestRepos(t)
	existing := userFixture(t, r, "alice")

	_, err := r.Users.Create(context.Background(), domain.User{
		Username:     existing.Username,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_NotFound(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := r.Users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
