package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/service"
	"github.com/sak-dev-bit/DevConnector/pkg/jwt"
	"github.com/sak-dev-bit/DevConnector/pkg/middleware"
)

const (
	idCaller = "11111111-1111-4111-8111-111111111111"
	idTarget = "22222222-2222-4222-8222-222222222222"
)

// fakeSocialService is a scriptable SocialGraphService.
type fakeSocialService struct {
	err         error
	isFollowing bool
	count       int64

	lastCaller string
	lastTarget string
	lastPage   int
	lastSize   int
	lastLimit  int
}

func (f *fakeSocialService) Follow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error) {
	f.lastCaller, f.lastTarget = callerID, targetID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FollowResult{
		Peer:                 domain.RelationEntry{UserID: targetID, Name: "target", FollowedAt: time.Now()},
		FollowingCount:       1,
		TargetFollowersCount: 1,
	}, nil
}

func (f *fakeSocialService) Unfollow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error) {
	f.lastCaller, f.lastTarget = callerID, targetID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FollowResult{Peer: domain.RelationEntry{UserID: targetID}}, nil
}

func (f *fakeSocialService) ListFollowers(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error) {
	f.lastTarget, f.lastPage, f.lastSize = targetID, page, pageSize
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RelationPage{Entries: []domain.RelationEntry{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeSocialService) ListFollowing(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error) {
	return f.ListFollowers(ctx, targetID, page, pageSize)
}

func (f *fakeSocialService) FollowStatus(ctx context.Context, callerID, targetID string) (bool, error) {
	f.lastCaller, f.lastTarget = callerID, targetID
	if f.err != nil {
		return false, f.err
	}
	return f.isFollowing, nil
}

func (f *fakeSocialService) Suggest(ctx context.Context, callerID string, limit int) ([]domain.Suggestion, error) {
	f.lastCaller, f.lastLimit = callerID, limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Suggestion{}, nil
}

func (f *fakeSocialService) FollowersCount(ctx context.Context, userID string) (int64, error) {
	f.lastTarget = userID
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

// fakeUserService satisfies service.UserService for route registration.
type fakeUserService struct {
	err  error
	user *domain.UserResponse
	auth *domain.AuthResponse
}

func (f *fakeUserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.auth, nil
}

func (f *fakeUserService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.auth, nil
}

func (f *fakeUserService) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.auth, nil
}

func (f *fakeUserService) Logout(ctx context.Context, userID string) error { return f.err }

func (f *fakeUserService) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) GetPublicProfile(ctx context.Context, userID string) (*domain.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type testEnv struct {
	router *gin.Engine
	token  string
	social *fakeSocialService
	users  *fakeUserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := jwt.NewManager(15*time.Minute, time.Hour, "test")
	require.NoError(t, err)
	token, _, _, _, err := manager.GenerateTokenPair(idCaller, "caller@example.com", "caller")
	require.NoError(t, err)

	social := &fakeSocialService{}
	users := &fakeUserService{
		user: &domain.UserResponse{ID: idCaller, Name: "caller"},
		auth: &domain.AuthResponse{User: domain.UserResponse{ID: idCaller}},
	}

	router := gin.New()
	RegisterRoutes(router, middleware.NewAuthMiddleware(manager), NewUserHandler(users), NewSocialHandler(social))

	return &testEnv{router: router, token: token, social: social, users: users}
}

func (e *testEnv) do(method, path string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestFollowEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/users/"+idTarget+"/follow", true)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, idCaller, env.social.lastCaller)
	assert.Equal(t, idTarget, env.social.lastTarget)
}

func TestFollowRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/users/"+idTarget+"/follow", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFollowErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		svcErr error
		want   int
	}{
		{"invalid id", service.ErrInvalidID, http.StatusBadRequest},
		{"self follow", service.ErrSelfRelation, http.StatusBadRequest},
		{"unknown user", service.ErrUserNotFound, http.StatusNotFound},
		{"already following", service.ErrAlreadyFollowing, http.StatusConflict},
		{"transient", fmt.Errorf("%w: db down", service.ErrTransient), http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.social.err = tt.svcErr

			w := env.do(http.MethodPost, "/api/v1/users/"+idTarget+"/follow", true)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUnfollowEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodDelete, "/api/v1/users/"+idTarget+"/follow", true)
	assert.Equal(t, http.StatusOK, w.Code)

	env.social.err = service.ErrNotFollowing
	w = env.do(http.MethodDelete, "/api/v1/users/"+idTarget+"/follow", true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListFollowersEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/followers?page=2&page_size=5", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.social.lastPage)
	assert.Equal(t, 5, env.social.lastSize)

	// Defaults apply when the query is empty; list reads need no auth.
	w = env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/following", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.social.lastPage)
	assert.Equal(t, 20, env.social.lastSize)
}

func TestListFollowersBadQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/followers?page=abc", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/followers?page_size=x", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.social.err = service.ErrInvalidPagination
	w = env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/followers?page=-1", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.social.isFollowing = true

	w := env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/follow-status", true)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Following bool `json:"following"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Following)
}

func TestFollowersCountEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.social.count = 42

	w := env.do(http.MethodGet, "/api/v1/users/"+idTarget+"/followers/count", false)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			FollowersCount int64 `json:"followers_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.Data.FollowersCount)
}

func TestSuggestEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/suggestions?limit=5", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, idCaller, env.social.lastCaller)
	assert.Equal(t, 5, env.social.lastLimit)

	// Default limit.
	w = env.do(http.MethodGet, "/api/v1/suggestions", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, env.social.lastLimit)

	w = env.do(http.MethodGet, "/api/v1/suggestions?limit=abc", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", false)
	assert.Equal(t, http.StatusOK, w.Code)
}
