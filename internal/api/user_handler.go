package api

import (
	"errors"
	"net/http"
	"strconv"

	"gymsocial/internal/domain"
	"gymsocial/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes profile reads, user search, the exercise
// catalog and the profile photo flow.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrUserNotFound) {
		abortWithError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// SearchUsers matches display names by prefix; with no query it
// returns a small default listing, like the app's search screen.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	users, err := h.userService.SearchUsers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Search failed")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type ExerciseCatalogResponse struct {
	Default []domain.Exercise       `json:"default"`
	Custom  []domain.CustomExercise `json:"custom"`
}

func (h *UserHandler) ListExercises(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	defaults, custom, err := h.userService.ListExercises(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to list exercises")
		return
	}
	if custom == nil {
		custom = []domain.CustomExercise{}
	}
	c.JSON(http.StatusOK, ExerciseCatalogResponse{Default: defaults, Custom: custom})
}

type AddCustomExerciseRequest struct {
	Name         string   `json:"name" binding:"required"`
	MuscleGroups []string `json:"muscleGroups"`
}

func (h *UserHandler) AddCustomExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req AddCustomExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Exercise name is required")
		return
	}
	exercise := domain.CustomExercise{Name: req.Name}
	for _, raw := range req.MuscleGroups {
		if g, ok := domain.ParseMuscleGroup(raw); ok {
			exercise.MuscleGroups = append(exercise.MuscleGroups, g)
		}
	}
	id, err := h.userService.AddCustomExercise(c.Request.Context(), userID, exercise)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to add exercise")
		return
	}
	exercise.ID = id
	c.JSON(http.StatusCreated, exercise)
}

func (h *UserHandler) DeleteCustomExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	if err := h.userService.DeleteCustomExercise(c.Request.Context(), userID, c.Param("id")); err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to delete exercise")
		return
	}
	c.Status(http.StatusNoContent)
}

type PhotoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

func (h *UserHandler) RequestPhotoUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Content type is required")
		return
	}
	url, err := h.userService.RequestPhotoUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": url})
}

type ConfirmPhotoRequest struct {
	PhotoURL string `json:"photoURL" binding:"required,url"`
}

func (h *UserHandler) ConfirmPhoto(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Photo URL is required")
		return
	}
	if err := h.userService.ConfirmPhoto(c.Request.Context(), userID, req.PhotoURL); err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to record photo")
		return
	}
	c.Status(http.StatusNoContent)
}
