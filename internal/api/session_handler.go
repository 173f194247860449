package api

import (
	"errors"
	"net/http"
	"strconv"

	"gymsocial/internal/domain"
	"gymsocial/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the workout session state machine of the
// authenticated user.
type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type SessionStateResponse struct {
	State          session.State       `json:"state"`
	ElapsedSeconds float64             `json:"elapsedSeconds"`
	Draft          domain.DraftWorkout `json:"draft"`
}

type PublishRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type AddSetRequest struct {
	Reps   int     `json:"reps" binding:"required,gt=0"`
	Weight float64 `json:"weight" binding:"gte=0"`
}

func (h *SessionHandler) machine(c *gin.Context) (*session.Machine, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}
	return h.sessions.ForUser(userID), true
}

// GetState reports the session's state, elapsed time and draft.
func (h *SessionHandler) GetState(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionStateResponse{
		State:          m.State(),
		ElapsedSeconds: m.Elapsed().Seconds(),
		Draft:          m.Draft(),
	})
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	m := h.sessions.ForUser(userID)
	if err := m.Start(userID); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"state": m.State(), "draft": m.Draft()})
}

func (h *SessionHandler) AddExercise(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	var log domain.ExerciseLog
	if err := c.ShouldBindJSON(&log); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise payload")
		return
	}
	if err := m.AddExercise(log); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": m.Draft()})
}

func (h *SessionHandler) AddSet(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise index")
		return
	}
	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set payload")
		return
	}
	if err := m.AddSet(index, domain.WorkoutSet{Reps: req.Reps, Weight: req.Weight}); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": m.Draft()})
}

func (h *SessionHandler) ReplaceExercise(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise index")
		return
	}
	var log domain.ExerciseLog
	if err := c.ShouldBindJSON(&log); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise payload")
		return
	}
	if err := m.ReplaceExercise(index, log); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": m.Draft()})
}

func (h *SessionHandler) Finish(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := m.Finish(); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State(), "draft": m.Draft()})
}

func (h *SessionHandler) Publish(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Title is required")
		return
	}
	postID, err := m.Publish(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"postId": postID})
}

func (h *SessionHandler) Discard(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := m.Discard(); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": m.State()})
}

// sessionError maps machine errors: wrong-state calls are conflicts,
// bad payloads are client errors, anything else (store write failures
// during publish; the draft is preserved and the client may retry) is
// a server error.
func sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidState):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyTitle),
		errors.Is(err, session.ErrInvalidSet),
		errors.Is(err, session.ErrNoSuchExercise),
		errors.Is(err, session.ErrMissingUser):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}
