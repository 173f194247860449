package api

import (
	"errors"
	"net/http"

	"gymsocial/internal/social"

	"github.com/gin-gonic/gin"
)

// SocialHandler exposes follow graph operations.
type SocialHandler struct {
	social social.Gateway
}

func NewSocialHandler(graph social.Gateway) *SocialHandler {
	return &SocialHandler{social: graph}
}

func (h *SocialHandler) Follow(c *gin.Context) {
	currentUID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	targetUID := c.Param("id")
	if err := h.social.Follow(c.Request.Context(), currentUID, targetUID); err != nil {
		socialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (h *SocialHandler) Unfollow(c *gin.Context) {
	currentUID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	targetUID := c.Param("id")
	if err := h.social.Unfollow(c.Request.Context(), currentUID, targetUID); err != nil {
		socialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *SocialHandler) FollowStatus(c *gin.Context) {
	currentUID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	isFollowing, err := h.social.IsFollowing(c.Request.Context(), currentUID, c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to check follow status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": isFollowing})
}

func (h *SocialHandler) Followers(c *gin.Context) {
	ids, err := h.social.FollowerIDs(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to list followers")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"userIds": ids})
}

func (h *SocialHandler) Following(c *gin.Context) {
	ids, err := h.social.FollowingIDs(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to list following")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"userIds": ids})
}

func socialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, social.ErrNotAuthenticated):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, social.ErrSelfFollow):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusBadGateway, err.Error())
	}
}
