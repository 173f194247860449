package api

import (
	"context"
	"net/http"
	"sync"

	"gymsocial/internal/domain"
	"gymsocial/internal/feed"
	"gymsocial/internal/social"
	"gymsocial/internal/store"

	"github.com/gin-gonic/gin"
)

// FeedHandler keeps one live feed aggregator per authenticated user,
// started lazily on first access and reloaded on demand.
type FeedHandler struct {
	store  store.Store
	social social.Gateway
	opts   []feed.Option

	mu          sync.Mutex
	aggregators map[string]*feed.Aggregator
}

func NewFeedHandler(st store.Store, graph social.Gateway, opts ...feed.Option) *FeedHandler {
	return &FeedHandler{
		store:       st,
		social:      graph,
		opts:        opts,
		aggregators: map[string]*feed.Aggregator{},
	}
}

type FeedResponse struct {
	Posts []domain.Post `json:"posts"`
}

// aggregatorFor returns the user's aggregator, attaching a new one on
// first use. Aggregators subscribe with a background-scoped context;
// their lifetime is the process, not the request.
func (h *FeedHandler) aggregatorFor(userID string) (*feed.Aggregator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	agg, ok := h.aggregators[userID]
	if ok {
		return agg, nil
	}
	agg = feed.NewAggregator(h.store, h.social, userID, h.opts...)
	if err := agg.Start(context.Background()); err != nil {
		return nil, err
	}
	h.aggregators[userID] = agg
	return agg, nil
}

// GetFeed returns the current merged view.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	agg, err := h.aggregatorFor(userID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to load feed: "+err.Error())
		return
	}
	posts := agg.Posts()
	if posts == nil {
		posts = []domain.Post{}
	}
	c.JSON(http.StatusOK, FeedResponse{Posts: posts})
}

// Refresh tears down and re-attaches the user's subscriptions; called
// on pull-to-refresh and after follow-graph changes. On failure the
// previous view is retained.
func (h *FeedHandler) Refresh(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	agg, err := h.aggregatorFor(userID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to load feed: "+err.Error())
		return
	}
	if err := agg.Reload(context.Background()); err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to refresh feed: "+err.Error())
		return
	}
	posts := agg.Posts()
	if posts == nil {
		posts = []domain.Post{}
	}
	c.JSON(http.StatusOK, FeedResponse{Posts: posts})
}
