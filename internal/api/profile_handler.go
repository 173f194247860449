package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"gymsocial/internal/domain"
	"gymsocial/internal/profile"
	"gymsocial/internal/service"
	"gymsocial/internal/social"
	"gymsocial/internal/store"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves profile views: a live aggregator for the
// authenticated user's own profile, one-shot snapshots for everyone
// else's.
type ProfileHandler struct {
	store       store.Store
	userService service.UserService
	social      social.Gateway
	window      time.Duration
	opts        []profile.Option

	mu          sync.Mutex
	aggregators map[string]*profile.Aggregator
}

func NewProfileHandler(st store.Store, users service.UserService, graph social.Gateway, window time.Duration, opts ...profile.Option) *ProfileHandler {
	if window <= 0 {
		window = profile.DefaultRecentWindow
	}
	return &ProfileHandler{
		store:       st,
		userService: users,
		social:      graph,
		window:      window,
		opts:        opts,
		aggregators: map[string]*profile.Aggregator{},
	}
}

type ProfileResponse struct {
	User            domain.User          `json:"user"`
	Posts           []domain.Post        `json:"posts"`
	RecentlyTrained []domain.MuscleGroup `json:"recentlyTrained"`
	FollowersCount  int                  `json:"followersCount"`
	FollowingCount  int                  `json:"followingCount"`
	IsFollowing     bool                 `json:"isFollowing,omitempty"`
}

func (h *ProfileHandler) aggregatorFor(userID string) (*profile.Aggregator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	agg, ok := h.aggregators[userID]
	if ok {
		return agg, nil
	}
	opts := append([]profile.Option{profile.WithRecentWindow(h.window)}, h.opts...)
	agg = profile.NewAggregator(h.store, userID, opts...)
	if err := agg.Start(context.Background()); err != nil {
		return nil, err
	}
	h.aggregators[userID] = agg
	return agg, nil
}

// GetOwnProfile serves the authenticated user's live profile view.
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	agg, err := h.aggregatorFor(userID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to load profile: "+err.Error())
		return
	}
	h.respond(c, userID, userID, agg.View())
}

// GetPublicProfile serves another user's profile with a one-shot
// snapshot.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	currentUID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	targetUID := c.Param("id")

	view, err := profile.Snapshot(c.Request.Context(), h.store, targetUID, h.window)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to load profile: "+err.Error())
		return
	}
	h.respond(c, currentUID, targetUID, view)
}

func (h *ProfileHandler) respond(c *gin.Context, currentUID, targetUID string, view profile.View) {
	user, err := h.userService.GetUser(c.Request.Context(), targetUID)
	if errors.Is(err, service.ErrUserNotFound) {
		abortWithError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load user")
		return
	}

	// Counts are best-effort: a failed count renders as zero rather
	// than failing the whole profile.
	followers, _ := h.social.FollowerIDs(c.Request.Context(), targetUID)
	following, _ := h.social.FollowingIDs(c.Request.Context(), targetUID)

	resp := ProfileResponse{
		User:            user,
		Posts:           view.Posts,
		RecentlyTrained: view.RecentlyTrained,
		FollowersCount:  len(followers),
		FollowingCount:  len(following),
	}
	if resp.Posts == nil {
		resp.Posts = []domain.Post{}
	}
	if resp.RecentlyTrained == nil {
		resp.RecentlyTrained = []domain.MuscleGroup{}
	}
	if currentUID != targetUID {
		isFollowing, _ := h.social.IsFollowing(c.Request.Context(), currentUID, targetUID)
		resp.IsFollowing = isFollowing
	}
	c.JSON(http.StatusOK, resp)
}
