package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymsocial/internal/feed"
	"gymsocial/internal/service"
	"gymsocial/internal/session"
	"gymsocial/internal/social"
	"gymsocial/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testApp struct {
	router *gin.Engine
	store  *memory.Store
	auth   service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	auth := service.NewAuthService(st, testJWTSecret, time.Hour)
	posts := service.NewPostService(st)
	users := service.NewUserService(st, nil)
	graph := social.NewService(st)

	router := gin.New()
	SetupRoutes(router, testJWTSecret, Handlers{
		Auth:    NewAuthHandler(auth),
		Session: NewSessionHandler(session.NewManager(posts)),
		Feed:    NewFeedHandler(st, graph, feed.WithChunkSize(feed.DefaultChunkSize)),
		Profile: NewProfileHandler(st, users, graph, 48*time.Hour),
		Social:  NewSocialHandler(graph),
		User:    NewUserHandler(users),
		Post:    NewPostHandler(posts),
	})
	return &testApp{router: router, store: st, auth: auth}
}

func (app *testApp) registerAndLogin(t *testing.T, name, email string) string {
	t.Helper()
	_, err := app.auth.Register(context.Background(), name, email, "password123")
	require.NoError(t, err)
	token, _, err := app.auth.Login(context.Background(), email, "password123")
	require.NoError(t, err)
	return token
}

func (app *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/session", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := app.registerAndLogin(t, "Serj", "serj@example.com")
	rec = app.do(t, http.MethodGet, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "Serj", "serj@example.com")

	// Idle at first.
	rec := app.do(t, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state SessionStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, session.StateIdle, state.State)

	// Start; a second start conflicts.
	rec = app.do(t, http.MethodPost, "/api/v1/session/start", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = app.do(t, http.MethodPost, "/api/v1/session/start", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Log an exercise and a set.
	rec = app.do(t, http.MethodPost, "/api/v1/session/exercises", token, gin.H{
		"name":         "Bench Press",
		"muscleGroups": []string{"chest"},
		"sets":         []gin.H{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/session/exercises/0/sets", token, gin.H{
		"reps": 8, "weight": 135,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/session/exercises/5/sets", token, gin.H{
		"reps": 8, "weight": 135,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Finish and publish.
	rec = app.do(t, http.MethodPost, "/api/v1/session/finish", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/session/publish", token, gin.H{
		"title": "Push day", "description": "felt strong",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var published struct {
		PostID string `json:"postId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	require.NotEmpty(t, published.PostID)

	// The post exists and carries the author's display name.
	rec = app.do(t, http.MethodGet, "/api/v1/posts/"+published.PostID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Serj")
	assert.Contains(t, rec.Body.String(), "Push day")

	// Back to Idle.
	rec = app.do(t, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, session.StateIdle, state.State)
}

func TestPublishWithoutTitleRejected(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "Serj", "serj@example.com")

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/session/start", token, nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/v1/session/finish", token, nil).Code)

	rec := app.do(t, http.MethodPost, "/api/v1/session/publish", token, gin.H{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	app := newTestApp(t)
	alice := app.registerAndLogin(t, "Alice", "alice@example.com")
	bob := app.registerAndLogin(t, "Bob", "bob@example.com")

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/session/start", alice, nil).Code)

	rec := app.do(t, http.MethodGet, "/api/v1/session", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state SessionStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, session.StateIdle, state.State)
}

func TestFollowAndFeedOverHTTP(t *testing.T) {
	app := newTestApp(t)
	alice := app.registerAndLogin(t, "Alice", "alice@example.com")
	bob := app.registerAndLogin(t, "Bob", "bob@example.com")

	// Bob publishes a workout.
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/session/start", bob, nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/v1/session/finish", bob, nil).Code)
	require.Equal(t, http.StatusCreated,
		app.do(t, http.MethodPost, "/api/v1/session/publish", bob, gin.H{"title": "Bob's workout"}).Code)

	// Bob's user id, via search.
	rec := app.do(t, http.MethodGet, "/api/v1/users/search?q=Bob", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found.Users, 1)
	bobID := found.Users[0].ID

	// Before following, Alice's feed is empty.
	rec = app.do(t, http.MethodGet, "/api/v1/feed", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Bob's workout")

	require.Equal(t, http.StatusOK,
		app.do(t, http.MethodPost, "/api/v1/users/"+bobID+"/follow", alice, nil).Code)

	// The follow changed the author set, so the feed needs a refresh.
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/v1/feed/refresh", alice, nil).Code)

	rec = app.do(t, http.MethodGet, "/api/v1/feed", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bob's workout")
}
