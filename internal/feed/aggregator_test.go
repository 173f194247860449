package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/store"
	"gymsocial/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	following []string
}

func (g *fakeGraph) Follow(context.Context, string, string) error   { return nil }
func (g *fakeGraph) Unfollow(context.Context, string, string) error { return nil }
func (g *fakeGraph) IsFollowing(context.Context, string, string) (bool, error) {
	return false, nil
}
func (g *fakeGraph) FollowingIDs(context.Context, string) ([]string, error) {
	return g.following, nil
}
func (g *fakeGraph) FollowerIDs(context.Context, string) ([]string, error) { return nil, nil }

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func postDoc(authorID, title string, ts time.Time) store.Document {
	return store.Document{
		codec.FieldType:       domain.PostTypeWorkout,
		codec.FieldAuthorID:   authorID,
		codec.FieldAuthorName: authorID,
		codec.FieldTimestamp:  ts,
		codec.FieldLikes:      0,
		codec.FieldTitle:      title,
		codec.FieldWorkout: store.Document{
			"startTime": ts.Add(-30 * time.Minute),
			"endTime":   ts,
			"exercises": []any{},
		},
	}
}

func insertPost(t *testing.T, st store.Store, authorID, title string, ts time.Time) string {
	t.Helper()
	id, err := st.Insert(context.Background(), "posts", postDoc(authorID, title, ts))
	require.NoError(t, err)
	return id
}

func titles(posts []domain.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestAggregator_MergesSelfAndFollowed(t *testing.T) {
	st := memory.New()
	insertPost(t, st, "me", "mine", baseTime.Add(1*time.Hour))
	insertPost(t, st, "friend", "theirs", baseTime.Add(2*time.Hour))
	insertPost(t, st, "stranger", "hidden", baseTime.Add(3*time.Hour))

	a := NewAggregator(st, &fakeGraph{following: []string{"friend"}}, "me")
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	// Newest first; the stranger never shows up.
	assert.Equal(t, []string{"theirs", "mine"}, titles(a.Posts()))
}

func TestAggregator_RequiresUser(t *testing.T) {
	a := NewAggregator(memory.New(), &fakeGraph{}, "")
	assert.Error(t, a.Start(context.Background()))
}

func TestAggregator_LiveUpdate(t *testing.T) {
	st := memory.New()
	insertPost(t, st, "me", "first", baseTime)

	a := NewAggregator(st, &fakeGraph{}, "me")
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	require.Equal(t, []string{"first"}, titles(a.Posts()))
	drainUpdates(a)

	insertPost(t, st, "me", "second", baseTime.Add(time.Hour))

	select {
	case view := <-a.Updates():
		assert.Equal(t, []string{"second", "first"}, titles(view))
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
	assert.Equal(t, []string{"second", "first"}, titles(a.Posts()))
}

func drainUpdates(a *Aggregator) {
	for {
		select {
		case <-a.Updates():
		default:
			return
		}
	}
}

func TestAggregator_UndecodablePostsSkipped(t *testing.T) {
	st := memory.New()
	insertPost(t, st, "me", "good", baseTime)
	bad := postDoc("me", "bad", baseTime.Add(time.Hour))
	delete(bad, codec.FieldTitle)
	_, err := st.Insert(context.Background(), "posts", bad)
	require.NoError(t, err)

	a := NewAggregator(st, &fakeGraph{}, "me")
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	assert.Equal(t, []string{"good"}, titles(a.Posts()))
}

func TestAggregator_PartitionsLargeAuthorSets(t *testing.T) {
	st := &captureStore{}
	following := make([]string, 0, 22)
	for i := 0; i < 22; i++ {
		following = append(following, string(rune('a'+i)))
	}

	a := NewAggregator(st, &fakeGraph{following: following}, "me")
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	// 23 authors at chunk size 10 means three subscriptions.
	require.Len(t, st.queries, 3)
	total := 0
	for _, q := range st.queries {
		assert.LessOrEqual(t, len(q.InValues), store.MaxInValues)
		total += len(q.InValues)
	}
	assert.Equal(t, 23, total)
	assert.Equal(t, "me", st.queries[0].InValues[0])
}

func TestAggregator_ReloadDiscardsStaleCallbacks(t *testing.T) {
	st := &captureStore{}
	a := NewAggregator(st, &fakeGraph{}, "me")
	require.NoError(t, a.Start(context.Background()))

	stale := st.handlers[0]
	require.NoError(t, a.Reload(context.Background()))
	require.Len(t, st.handlers, 2)

	// Deliver on the cancelled subscription's handler: the view must
	// not change.
	stale([]store.Snapshot{{ID: "ghost", Data: postDoc("me", "ghost", baseTime)}})
	assert.Empty(t, a.Posts())

	st.handlers[1]([]store.Snapshot{{ID: "live", Data: postDoc("me", "live", baseTime)}})
	assert.Equal(t, []string{"live"}, titles(a.Posts()))
}

func TestAggregator_StopKeepsLastView(t *testing.T) {
	st := memory.New()
	insertPost(t, st, "me", "kept", baseTime)

	a := NewAggregator(st, &fakeGraph{}, "me")
	require.NoError(t, a.Start(context.Background()))
	a.Stop()

	assert.Equal(t, []string{"kept"}, titles(a.Posts()))

	// Writes after Stop never reach the view.
	insertPost(t, st, "me", "late", baseTime.Add(time.Hour))
	assert.Equal(t, []string{"kept"}, titles(a.Posts()))
}

func TestMergeChunks_DedupesAndSorts(t *testing.T) {
	p1 := domain.Post{ID: "p1", Title: "one", Timestamp: baseTime.Add(3 * time.Hour)}
	p2 := domain.Post{ID: "p2", Title: "two", Timestamp: baseTime.Add(2 * time.Hour)}
	p2dup := domain.Post{ID: "p2", Title: "two (stale copy)", Timestamp: baseTime.Add(2 * time.Hour)}
	p3 := domain.Post{ID: "p3", Title: "three", Timestamp: baseTime.Add(1 * time.Hour)}

	merged := mergeChunks(map[int][]domain.Post{
		0: {p2, p3},
		1: {p1, p2dup},
	})

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"one", "two", "three"}, titles(merged))
	// The lower chunk index wins the duplicate.
	assert.Equal(t, "two", merged[1].Title)
}

func TestMergeChunks_StableOnTies(t *testing.T) {
	ts := baseTime
	a := domain.Post{ID: "a", Timestamp: ts}
	b := domain.Post{ID: "b", Timestamp: ts}
	c := domain.Post{ID: "c", Timestamp: ts}

	merged := mergeChunks(map[int][]domain.Post{0: {a, b}, 1: {c}})
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "c", merged[2].ID)
}

func TestChunkAuthors(t *testing.T) {
	chunks := chunkAuthors([]string{"a", "b", "a", "", "c"}, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"c"}, chunks[1])

	assert.Empty(t, chunkAuthors(nil, 10))
}

// captureStore records subscriptions instead of serving data, so tests
// can drive handlers by hand.
type captureStore struct {
	mu       sync.Mutex
	queries  []store.Query
	handlers []store.Handler
}

func (s *captureStore) Get(context.Context, string, string) (store.Snapshot, error) {
	return store.Snapshot{}, store.ErrNotFound
}

func (s *captureStore) Query(context.Context, store.Query) ([]store.Snapshot, error) {
	return nil, nil
}

func (s *captureStore) Insert(context.Context, string, store.Document) (string, error) {
	return "", nil
}

func (s *captureStore) Set(context.Context, string, string, store.Document, bool) error {
	return nil
}

func (s *captureStore) Delete(context.Context, string, string) error { return nil }

func (s *captureStore) Subscribe(_ context.Context, q store.Query, h store.Handler) (store.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	s.handlers = append(s.handlers, h)
	return func() {}, nil
}
