package api

import (
	"errors"
	"net/http"

	"gymsocial/internal/service"

	"github.com/gin-gonic/gin"
)

// PostHandler serves single workout posts (detail view).
type PostHandler struct {
	postService service.PostService
}

func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrPostNotFound) {
		abortWithError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load post")
		return
	}
	c.JSON(http.StatusOK, post)
}
