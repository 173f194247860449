package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything SetupRoutes wires up.
type Handlers struct {
	Auth    *AuthHandler
	Session *SessionHandler
	Feed    *FeedHandler
	Profile *ProfileHandler
	Social  *SocialHandler
	User    *UserHandler
	Post    *PostHandler
}

// SetupRoutes registers the full API surface under /api/v1.
func SetupRoutes(router *gin.Engine, jwtSecret string, h Handlers) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		// --- Workout Session ---
		sessionGroup := protected.Group("/session")
		{
			sessionGroup.GET("", h.Session.GetState)
			sessionGroup.POST("/start", h.Session.Start)
			sessionGroup.POST("/exercises", h.Session.AddExercise)
			sessionGroup.PUT("/exercises/:index", h.Session.ReplaceExercise)
			sessionGroup.POST("/exercises/:index/sets", h.Session.AddSet)
			sessionGroup.POST("/finish", h.Session.Finish)
			sessionGroup.POST("/publish", h.Session.Publish)
			sessionGroup.POST("/discard", h.Session.Discard)
		}

		// --- Feed ---
		protected.GET("/feed", h.Feed.GetFeed)
		protected.POST("/feed/refresh", h.Feed.Refresh)

		// --- Posts ---
		protected.GET("/posts/:id", h.Post.GetPost)

		// --- Profiles ---
		protected.GET("/me/profile", h.Profile.GetOwnProfile)
		protected.POST("/me/photo-upload-url", h.User.RequestPhotoUploadURL)
		protected.PUT("/me/photo", h.User.ConfirmPhoto)

		// --- Users & Social Graph ---
		userGroup := protected.Group("/users")
		{
			userGroup.GET("/search", h.User.SearchUsers)
			userGroup.GET("/:id", h.User.GetUser)
			userGroup.GET("/:id/profile", h.Profile.GetPublicProfile)
			userGroup.POST("/:id/follow", h.Social.Follow)
			userGroup.DELETE("/:id/follow", h.Social.Unfollow)
			userGroup.GET("/:id/follow", h.Social.FollowStatus)
			userGroup.GET("/:id/followers", h.Social.Followers)
			userGroup.GET("/:id/following", h.Social.Following)
		}

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", h.User.ListExercises)
			exerciseGroup.POST("/custom", h.User.AddCustomExercise)
			exerciseGroup.DELETE("/custom/:id", h.User.DeleteCustomExercise)
		}
	}
}
