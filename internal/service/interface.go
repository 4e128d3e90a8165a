package service

import (
	"context"
	"errors"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
)

var (
	ErrInvalidID         = errors.New("invalid user id")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrSelfRelation      = errors.New("cannot follow yourself")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyFollowing  = errors.New("already following")
	ErrNotFollowing      = errors.New("not following")
	// ErrTransient marks storage or transaction failures that are safe to
	// retry; the failed operation was rolled back in full.
	ErrTransient = errors.New("storage temporarily unavailable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// SocialGraphService defines the business logic for the social graph.
type SocialGraphService interface {
	Follow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error)
	Unfollow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error)
	ListFollowers(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error)
	ListFollowing(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error)
	FollowStatus(ctx context.Context, callerID, targetID string) (bool, error)
	Suggest(ctx context.Context, callerID string, limit int) ([]domain.Suggestion, error)
	FollowersCount(ctx context.Context, userID string) (int64, error)
}

// UserService defines account and profile operations.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*domain.UserResponse, error)
	GetPublicProfile(ctx context.Context, userID string) (*domain.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error)
}
