// Package feed merges workout posts from the current user and every
// followed author into one live, deduplicated, recency-ordered view.
//
// The store can only filter on "authorID in (at most 10 values)", so
// the author set is partitioned into chunks with one live subscription
// each. Chunk updates arrive in no particular order relative to each
// other; the aggregator never patches incrementally but rebuilds the
// whole view from the latest result of every chunk, so consumers
// always observe a consistent snapshot.
package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/social"
	"gymsocial/internal/store"

	log "github.com/sirupsen/logrus"
)

// DefaultChunkSize matches the store's membership-filter bound.
const DefaultChunkSize = store.MaxInValues

// Aggregator maintains the merged feed for one user.
type Aggregator struct {
	store     store.Store
	social    social.Gateway
	userID    string
	chunkSize int
	limit     int

	mu      sync.Mutex
	gen     int // bumped on every (re)start; stale callbacks check it
	cancels []store.CancelFunc
	chunks  map[int][]domain.Post // latest decoded result per chunk
	view    []domain.Post
	updates chan []domain.Post
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithChunkSize overrides the author partition size (tests).
func WithChunkSize(n int) Option {
	return func(a *Aggregator) { a.chunkSize = n }
}

// WithLimit caps the per-chunk query size.
func WithLimit(n int) Option {
	return func(a *Aggregator) { a.limit = n }
}

// NewAggregator creates a feed aggregator for the given user.
// Call Start to attach it.
func NewAggregator(st store.Store, graph social.Gateway, userID string, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:     st,
		social:    graph,
		userID:    userID,
		chunkSize: DefaultChunkSize,
		chunks:    map[int][]domain.Post{},
		updates:   make(chan []domain.Post, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start resolves the follow graph and opens one subscription per
// author chunk. Safe to call repeatedly: each call first detaches
// every previous subscription, so Start doubles as reload (pull to
// refresh, social-graph change). On failure the previous view is
// retained; the error is returned to the caller and not retried here.
func (a *Aggregator) Start(ctx context.Context) error {
	if a.userID == "" {
		return social.ErrNotAuthenticated
	}

	followed, err := a.social.FollowingIDs(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("list followed authors: %w", err)
	}
	authors := append([]string{a.userID}, followed...)

	a.mu.Lock()
	a.detachLocked()
	a.gen++
	gen := a.gen
	a.chunks = map[int][]domain.Post{}
	a.mu.Unlock()

	for i, chunk := range chunkAuthors(authors, a.chunkSize) {
		chunkIndex := i
		q := store.Query{
			Collection: "posts",
			Eq:         map[string]any{codec.FieldType: domain.PostTypeWorkout},
			InField:    codec.FieldAuthorID,
			InValues:   chunk,
			OrderBy:    codec.FieldTimestamp,
			Descending: true,
			Limit:      a.limit,
		}
		cancel, err := a.store.Subscribe(ctx, q, func(snapshots []store.Snapshot) {
			a.apply(gen, chunkIndex, codec.DecodePosts(snapshots))
		})
		if err != nil {
			a.Stop()
			return fmt.Errorf("subscribe feed chunk %d: %w", chunkIndex, err)
		}
		a.mu.Lock()
		if gen != a.gen {
			// Stopped or restarted while subscribing.
			a.mu.Unlock()
			cancel()
			return nil
		}
		a.cancels = append(a.cancels, cancel)
		a.mu.Unlock()
	}

	log.Debugf("feed aggregator for %s attached, %d author(s)", a.userID, len(authors))
	return nil
}

// Reload tears down all subscriptions and re-runs the attach flow.
func (a *Aggregator) Reload(ctx context.Context) error { return a.Start(ctx) }

// Stop detaches every subscription. The last merged view stays
// readable.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	a.detachLocked()
	a.gen++
	a.mu.Unlock()
}

func (a *Aggregator) detachLocked() {
	for _, cancel := range a.cancels {
		cancel()
	}
	a.cancels = nil
}

// Posts returns the current merged view.
func (a *Aggregator) Posts() []domain.Post {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Post(nil), a.view...)
}

// Updates signals a new merged view; the channel holds only the
// latest snapshot, intermediate ones are dropped.
func (a *Aggregator) Updates() <-chan []domain.Post {
	return a.updates
}

// apply replaces one chunk's contribution and republishes the merged
// view. Updates from a previous generation (cancelled subscriptions
// racing a reload) are discarded so stale data can never re-enter the
// view.
func (a *Aggregator) apply(gen, chunkIndex int, posts []domain.Post) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.chunks[chunkIndex] = posts
	a.view = mergeChunks(a.chunks)

	select {
	case <-a.updates:
	default:
	}
	a.updates <- append([]domain.Post(nil), a.view...)
}

// mergeChunks rebuilds the full view from the latest per-chunk
// results: dedupe by post id, then a stable sort by timestamp
// descending (ties keep their merge order).
func mergeChunks(chunks map[int][]domain.Post) []domain.Post {
	indexes := make([]int, 0, len(chunks))
	for i := range chunks {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	seen := map[string]bool{}
	var merged []domain.Post
	for _, i := range indexes {
		for _, post := range chunks[i] {
			if seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			merged = append(merged, post)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return merged
}

// chunkAuthors partitions the author ids into groups of at most size,
// dropping duplicates so an author never spans two chunks.
func chunkAuthors(authors []string, size int) [][]string {
	seen := map[string]bool{}
	var chunks [][]string
	var current []string
	for _, id := range authors {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		current = append(current, id)
		if len(current) == size {
			chunks = append(chunks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
