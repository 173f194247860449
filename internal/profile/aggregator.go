// Package profile maintains the live view of one user's own workout
// posts plus the derived "recently trained" muscle-group set that
// drives the highlight diagram.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/social"
	"gymsocial/internal/store"
)

// DefaultRecentWindow is how far back a workout still counts as
// "recently trained".
const DefaultRecentWindow = 48 * time.Hour

// View is one atomic snapshot of the profile: the post history and
// the muscle groups trained within the window always change together,
// so the highlight diagram can never disagree with the list below it.
type View struct {
	Posts           []domain.Post        `json:"posts"`
	RecentlyTrained []domain.MuscleGroup `json:"recentlyTrained"`
}

// Aggregator subscribes to one user's workout posts.
type Aggregator struct {
	store  store.Store
	userID string
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	gen     int
	cancel  store.CancelFunc
	view    View
	updates chan View
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRecentWindow overrides the 48 hour highlight window.
func WithRecentWindow(d time.Duration) Option {
	return func(a *Aggregator) { a.window = d }
}

// WithClock overrides the aggregator's time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates a profile aggregator for the given user.
func NewAggregator(st store.Store, userID string, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:   st,
		userID:  userID,
		window:  DefaultRecentWindow,
		now:     func() time.Time { return time.Now().UTC() },
		updates: make(chan View, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start attaches the live subscription. Like the feed aggregator,
// calling it again first detaches the previous subscription, and a
// failure keeps the last good view.
func (a *Aggregator) Start(ctx context.Context) error {
	if a.userID == "" {
		return social.ErrNotAuthenticated
	}

	a.mu.Lock()
	a.detachLocked()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	q := store.Query{
		Collection: "posts",
		Eq: map[string]any{
			codec.FieldType:     domain.PostTypeWorkout,
			codec.FieldAuthorID: a.userID,
		},
		OrderBy:    codec.FieldTimestamp,
		Descending: true,
	}
	cancel, err := a.store.Subscribe(ctx, q, func(snapshots []store.Snapshot) {
		a.apply(gen, codec.DecodePosts(snapshots))
	})
	if err != nil {
		return fmt.Errorf("subscribe profile posts: %w", err)
	}

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		cancel()
		return nil
	}
	a.cancel = cancel
	a.mu.Unlock()
	return nil
}

// Stop detaches the subscription; the last view stays readable.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	a.detachLocked()
	a.gen++
	a.mu.Unlock()
}

func (a *Aggregator) detachLocked() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// View returns the current snapshot.
func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return View{
		Posts:           append([]domain.Post(nil), a.view.Posts...),
		RecentlyTrained: append([]domain.MuscleGroup(nil), a.view.RecentlyTrained...),
	}
}

// Updates signals a new snapshot; only the latest is retained.
func (a *Aggregator) Updates() <-chan View {
	return a.updates
}

func (a *Aggregator) apply(gen int, posts []domain.Post) {
	recent := recentlyTrained(posts, a.now().Add(-a.window))

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.view = View{Posts: posts, RecentlyTrained: recent}

	select {
	case <-a.updates:
	default:
	}
	a.updates <- View{
		Posts:           append([]domain.Post(nil), posts...),
		RecentlyTrained: append([]domain.MuscleGroup(nil), recent...),
	}
}

// recentlyTrained unions the muscle groups of every exercise in every
// post at or after the cutoff, in stable enumeration order.
func recentlyTrained(posts []domain.Post, cutoff time.Time) []domain.MuscleGroup {
	trained := map[domain.MuscleGroup]bool{}
	for _, post := range posts {
		if post.Timestamp.Before(cutoff) {
			continue
		}
		for _, log := range post.Workout.Exercises {
			for _, g := range log.MuscleGroups {
				trained[g] = true
			}
		}
	}
	var out []domain.MuscleGroup
	for _, g := range domain.AllMuscleGroups {
		if trained[g] {
			out = append(out, g)
		}
	}
	return out
}
