package service

import (
	"context"
	"testing"
	"time"

	"gymsocial/internal/domain"
	"gymsocial/internal/store"
	"gymsocial/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() domain.WorkoutPayload {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	return domain.WorkoutPayload{
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Exercises: []domain.ExerciseLog{
			{
				Name:         "Deadlift",
				MuscleGroups: []domain.MuscleGroup{domain.MuscleBack},
				Sets:         []domain.WorkoutSet{{Reps: 5, Weight: 315}},
			},
		},
	}
}

func TestCreateWorkoutPost(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "users", "u1", store.Document{"displayName": "Serj"}, false))

	posts := NewPostService(st)
	id, err := posts.CreateWorkoutPost(ctx, "u1", "Pull day", "heavy", testPayload())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	post, err := posts.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", post.AuthorID)
	assert.Equal(t, "Serj", post.AuthorName)
	assert.Equal(t, "Pull day", post.Title)
	assert.Equal(t, "heavy", post.Description)
	assert.Zero(t, post.Likes)
	assert.False(t, post.Timestamp.IsZero(), "server timestamp must be resolved")
	require.Len(t, post.Workout.Exercises, 1)
	assert.Equal(t, "Deadlift", post.Workout.Exercises[0].Name)
}

func TestCreateWorkoutPost_UnknownAuthorName(t *testing.T) {
	st := memory.New()
	posts := NewPostService(st)

	id, err := posts.CreateWorkoutPost(context.Background(), "ghost", "Pull day", "", testPayload())
	require.NoError(t, err)

	post, err := posts.GetPost(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", post.AuthorName)
}

func TestCreateWorkoutPost_Validation(t *testing.T) {
	posts := NewPostService(memory.New())
	ctx := context.Background()

	_, err := posts.CreateWorkoutPost(ctx, "", "Pull day", "", testPayload())
	assert.Error(t, err)
	_, err = posts.CreateWorkoutPost(ctx, "u1", "", "", testPayload())
	assert.Error(t, err)
}

func TestGetPost_NotFound(t *testing.T) {
	posts := NewPostService(memory.New())
	_, err := posts.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGetPost_UndecodableTreatedAsMissing(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "posts", "broken", store.Document{"title": "only a title"}, false))

	posts := NewPostService(st)
	_, err := posts.GetPost(ctx, "broken")
	assert.ErrorIs(t, err, ErrPostNotFound)
}
