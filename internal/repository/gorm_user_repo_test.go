package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
)

func TestUserCreate(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.Len(t, user.ID, 36)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, int64(0), got.FollowersCount)
	assert.Equal(t, int64(0), got.FollowingCount)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}))

	err := repo.Create(ctx, &domain.User{
		Name:         "imposter",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUpdateProfile(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(ctx, user))

	name := "alice cooper"
	avatar := "https://cdn.example.com/a.png"
	got, err := repo.UpdateProfile(ctx, user.ID, &name, &avatar)
	require.NoError(t, err)
	assert.Equal(t, "alice cooper", got.Name)
	assert.Equal(t, avatar, got.Avatar)

	// Partial update leaves the other field alone.
	name2 := "alice c"
	got, err = repo.UpdateProfile(ctx, user.ID, &name2, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice c", got.Name)
	assert.Equal(t, avatar, got.Avatar)

	// No-op update still returns the current record.
	got, err = repo.UpdateProfile(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice c", got.Name)
}

func TestUserUpdateProfileNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewGormUserRepository(db)

	name := "ghost"
	_, err := repo.UpdateProfile(context.Background(), uuid.New().String(), &name, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
