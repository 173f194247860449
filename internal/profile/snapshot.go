package profile

import (
	"context"
	"fmt"
	"time"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/store"
)

// Snapshot computes a profile view with a single query, no live
// subscription. Used for viewing other users' profiles, where a
// request-scoped read is enough.
func Snapshot(ctx context.Context, st store.Store, userID string, window time.Duration) (View, error) {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	snapshots, err := st.Query(ctx, store.Query{
		Collection: "posts",
		Eq: map[string]any{
			codec.FieldType:     domain.PostTypeWorkout,
			codec.FieldAuthorID: userID,
		},
		OrderBy:    codec.FieldTimestamp,
		Descending: true,
	})
	if err != nil {
		return View{}, fmt.Errorf("query profile posts: %w", err)
	}
	posts := codec.DecodePosts(snapshots)
	return View{
		Posts:           posts,
		RecentlyTrained: recentlyTrained(posts, time.Now().UTC().Add(-window)),
	}, nil
}
