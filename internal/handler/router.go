package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sak-dev-bit/DevConnector/pkg/middleware"
)

// RegisterRoutes wires all HTTP routes onto the router.
func RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware, users *UserHandler, social *SocialHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", users.Register)
		authGroup.POST("/login", users.Login)
		authGroup.POST("/refresh", users.RefreshToken)
		authGroup.POST("/logout", auth.RequireAuth(), users.Logout)
	}

	me := v1.Group("/me", auth.RequireAuth())
	{
		me.GET("", users.Me)
		me.PATCH("", users.UpdateMe)
	}

	// Public profile and relationship reads.
	usersGroup := v1.Group("/users")
	{
		usersGroup.GET("/:user_id", users.GetProfile)
		usersGroup.GET("/:user_id/followers", social.ListFollowers)
		usersGroup.GET("/:user_id/following", social.ListFollowing)
		usersGroup.GET("/:user_id/followers/count", social.FollowersCount)
	}

	// Mutations and caller-relative reads need an authenticated caller.
	usersAuthed := v1.Group("/users", auth.RequireAuth())
	{
		usersAuthed.POST("/:user_id/follow", social.Follow)
		usersAuthed.DELETE("/:user_id/follow", social.Unfollow)
		usersAuthed.GET("/:user_id/follow-status", social.FollowStatus)
	}

	v1.GET("/suggestions", auth.RequireAuth(), social.Suggest)
}
