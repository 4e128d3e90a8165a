package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/service"
	"github.com/sak-dev-bit/DevConnector/pkg/middleware"
	"github.com/sak-dev-bit/DevConnector/pkg/response"
)

// UserHandler handles account and profile HTTP requests.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		h.writeError(c, err)
		return
	}

	response.Created(c, auth)
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		h.writeError(c, err)
		return
	}

	response.Success(c, auth)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.svc.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid refresh token")
			return
		}
		h.writeError(c, err)
		return
	}

	response.Success(c, auth)
}

// Logout handles POST /api/v1/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "logged out"})
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user)
}

// UpdateMe handles PATCH /api/v1/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user)
}

// GetProfile handles GET /api/v1/users/:user_id
func (h *UserHandler) GetProfile(c *gin.Context) {
	targetID := c.Param("user_id")

	user, err := h.svc.GetPublicProfile(c.Request.Context(), targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		response.BadRequest(c, "invalid user id")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrTransient):
		response.ServiceUnavailable(c, "temporary failure, please retry")
	default:
		response.InternalError(c, "internal server error")
	}
}
