package repository

import (
	"context"
	"errors"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, name, avatar *string) (*domain.User, error)
}

// FollowRepository defines persistence operations for the social graph.
// Follow and Unfollow mutate the edge and both participants' denormalized
// counters in a single transaction; everything else is a plain read.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error)
	Unfollow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error)
	ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error)
	Suggest(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error)
	FollowersCount(ctx context.Context, userID string) (int64, error)
	// RepairCounters recomputes every drifted followers_count/following_count
	// from the follows table and returns the number of repaired rows.
	RepairCounters(ctx context.Context) (int64, error)
}
