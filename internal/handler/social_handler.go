package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sak-dev-bit/DevConnector/internal/service"
	"github.com/sak-dev-bit/DevConnector/pkg/middleware"
	"github.com/sak-dev-bit/DevConnector/pkg/response"
)

// SocialHandler handles follow-graph HTTP requests.
type SocialHandler struct {
	svc service.SocialGraphService
}

// NewSocialHandler creates a new social graph handler.
func NewSocialHandler(svc service.SocialGraphService) *SocialHandler {
	return &SocialHandler{svc: svc}
}

// Follow handles POST /api/v1/users/:user_id/follow
func (h *SocialHandler) Follow(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	res, err := h.svc.Follow(c.Request.Context(), callerID, targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, gin.H{
		"following":              res.Peer,
		"following_count":        res.FollowingCount,
		"target_followers_count": res.TargetFollowersCount,
	})
}

// Unfollow handles DELETE /api/v1/users/:user_id/follow
func (h *SocialHandler) Unfollow(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	res, err := h.svc.Unfollow(c.Request.Context(), callerID, targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"unfollowed":             res.Peer,
		"following_count":        res.FollowingCount,
		"target_followers_count": res.TargetFollowersCount,
	})
}

// ListFollowers handles GET /api/v1/users/:user_id/followers
func (h *SocialHandler) ListFollowers(c *gin.Context) {
	targetID := c.Param("user_id")
	page, pageSize, err := parsePagination(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.ListFollowers(c.Request.Context(), targetID, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// ListFollowing handles GET /api/v1/users/:user_id/following
func (h *SocialHandler) ListFollowing(c *gin.Context) {
	targetID := c.Param("user_id")
	page, pageSize, err := parsePagination(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.ListFollowing(c.Request.Context(), targetID, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// FollowStatus handles GET /api/v1/users/:user_id/follow-status
func (h *SocialHandler) FollowStatus(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	following, err := h.svc.FollowStatus(c.Request.Context(), callerID, targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"following": following})
}

// FollowersCount handles GET /api/v1/users/:user_id/followers/count
func (h *SocialHandler) FollowersCount(c *gin.Context) {
	targetID := c.Param("user_id")

	count, err := h.svc.FollowersCount(c.Request.Context(), targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"user_id": targetID, "followers_count": count})
}

// Suggest handles GET /api/v1/suggestions
func (h *SocialHandler) Suggest(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "limit must be an integer")
			return
		}
		limit = v
	}

	suggestions, err := h.svc.Suggest(c.Request.Context(), callerID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"suggestions": suggestions})
}

func parsePagination(c *gin.Context) (page, pageSize int, err error) {
	page, pageSize = 1, 20

	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("page must be an integer")
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("page_size must be an integer")
		}
	}
	return page, pageSize, nil
}

func (h *SocialHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		response.BadRequest(c, "invalid user id")
	case errors.Is(err, service.ErrInvalidPagination):
		response.BadRequest(c, "page and page_size must be positive")
	case errors.Is(err, service.ErrInvalidLimit):
		response.BadRequest(c, "limit must be positive")
	case errors.Is(err, service.ErrSelfRelation):
		response.BadRequest(c, "cannot follow yourself")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrAlreadyFollowing):
		response.Conflict(c, "already following this user")
	case errors.Is(err, service.ErrNotFollowing):
		response.Conflict(c, "not following this user")
	case errors.Is(err, service.ErrTransient):
		response.ServiceUnavailable(c, "temporary failure, please retry")
	default:
		response.InternalError(c, "internal server error")
	}
}
