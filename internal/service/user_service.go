package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sak-dev-bit/DevConnector/internal/audit"
	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/repository"
	"github.com/sak-dev-bit/DevConnector/pkg/jwt"
	pkglog "github.com/sak-dev-bit/DevConnector/pkg/log"
	"github.com/sak-dev-bit/DevConnector/pkg/pubsub"
)

// userServiceImpl implements UserService.
type userServiceImpl struct {
	repo      repository.UserRepository
	tokens    *jwt.Manager
	publisher pubsub.Publisher
}

// NewUserService creates a new user service.
// publisher may be nil when the event bus is disabled.
func NewUserService(repo repository.UserRepository, tokens *jwt.Manager, publisher pubsub.Publisher) UserService {
	return &userServiceImpl{
		repo:      repo,
		tokens:    tokens,
		publisher: publisher,
	}
}

// Register registers a new user with empty relationship lists and zero counters.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := pkglog.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, transient(err)
	}

	accessToken, refreshToken, accessExp, _, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.Name)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, user.ID).Msg("failed to generate tokens after register")
		return nil, err
	}

	if s.publisher != nil {
		if event, err := pubsub.NewEvent(pubsub.EventUserRegistered, user.ID, pubsub.RegisteredPayload{
			UserID: user.ID,
			Name:   user.Name,
		}); err == nil {
			if err := s.publisher.Publish(ctx, pubsub.SocialEventsChannel(user.ID), event); err != nil {
				l.Warn().Err(err).Msg("failed to publish registration event")
			}
		}
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

// Login authenticates a user. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := pkglog.Ctx(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", email, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, transient(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, accessExp, _, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.Name)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, user.ID).Msg("failed to generate tokens after login")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *userServiceImpl) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	l := pkglog.Ctx(ctx)

	accessToken, refreshToken, accessExp, _, err := s.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		l.Warn().Err(err).Msg("failed to refresh token")
		return nil, ErrInvalidCredentials
	}

	claims, err := s.tokens.ValidateToken(accessToken)
	if err != nil {
		l.Warn().Err(err).Msg("refreshed token validation failed")
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Str(pkglog.FieldUserID, claims.UserID).Msg("failed to get user after token refresh")
		return nil, transient(err)
	}

	audit.Log(ctx, audit.ActionRefreshToken, user.ID, "token refreshed")

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

// Logout revokes all outstanding tokens for the user.
func (s *userServiceImpl) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
	return nil
}

// GetUser retrieves the caller's own record.
func (s *userServiceImpl) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// GetPublicProfile retrieves another user's record with private fields stripped.
func (s *userServiceImpl) GetPublicProfile(ctx context.Context, userID string) (*domain.UserResponse, error) {
	if err := validateID(userID); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToPublicResponse()
	return &resp, nil
}

// UpdateProfile updates the caller's display fields.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error) {
	l := pkglog.Ctx(ctx)

	user, err := s.repo.UpdateProfile(ctx, userID, req.Name, req.Avatar)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to update profile")
		return nil, transient(err)
	}

	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile updated")

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userServiceImpl) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to get user")
		return nil, transient(err)
	}
	return user, nil
}

// Ensure interface is satisfied at compile time.
var _ UserService = (*userServiceImpl)(nil)
