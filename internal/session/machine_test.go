package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymsocial/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	calls    int
	authorID string
	title    string
	desc     string
	payload  domain.WorkoutPayload
	err      error
}

func (w *fakeWriter) CreateWorkoutPost(_ context.Context, authorID, title, description string, payload domain.WorkoutPayload) (string, error) {
	w.calls++
	w.authorID = authorID
	w.title = title
	w.desc = description
	w.payload = payload
	if w.err != nil {
		return "", w.err
	}
	return "post-1", nil
}

// testClock is a manually advanced time source.
type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func benchPress(sets ...domain.WorkoutSet) domain.ExerciseLog {
	return domain.ExerciseLog{
		Name:         "Bench Press",
		MuscleGroups: []domain.MuscleGroup{domain.MuscleChest},
		Sets:         sets,
	}
}

func TestMachine_StartsIdle(t *testing.T) {
	m := NewMachine(&fakeWriter{})
	assert.Equal(t, StateIdle, m.State())
	assert.Zero(t, m.Elapsed())
}

func TestMachine_StartRequiresUser(t *testing.T) {
	m := NewMachine(&fakeWriter{})
	assert.ErrorIs(t, m.Start(""), ErrMissingUser)
	assert.Equal(t, StateIdle, m.State())
}

func TestMachine_StartFixesStartTime(t *testing.T) {
	clock := newTestClock()
	m := NewMachine(&fakeWriter{}, WithClock(clock.now))

	require.NoError(t, m.Start("user-1"))
	assert.Equal(t, StateActive, m.State())

	draft := m.Draft()
	assert.Equal(t, "user-1", draft.UserID)
	assert.Equal(t, clock.t, draft.StartTime)
	assert.NotEmpty(t, draft.ID)
	assert.Nil(t, draft.EndTime)
	assert.Empty(t, draft.Exercises)
}

func TestMachine_DoubleStartRejected(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	assert.ErrorIs(t, m.Start("user-1"), ErrInvalidState)
}

func TestMachine_MutationsRequireActive(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	set := domain.WorkoutSet{Reps: 8, Weight: 135}

	assert.ErrorIs(t, m.AddExercise(benchPress()), ErrInvalidState)
	assert.ErrorIs(t, m.AddSet(0, set), ErrInvalidState)
	assert.ErrorIs(t, m.ReplaceExercise(0, benchPress()), ErrInvalidState)
	assert.ErrorIs(t, m.Finish(), ErrInvalidState)
	assert.ErrorIs(t, m.Discard(), ErrInvalidState)

	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.Finish())
	// Finishing: the draft is frozen, only publish/discard remain.
	assert.ErrorIs(t, m.AddExercise(benchPress()), ErrInvalidState)
	assert.ErrorIs(t, m.AddSet(0, set), ErrInvalidState)
}

func TestMachine_AddSetValidation(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.AddExercise(benchPress()))

	assert.ErrorIs(t, m.AddSet(1, domain.WorkoutSet{Reps: 8, Weight: 135}), ErrNoSuchExercise)
	assert.ErrorIs(t, m.AddSet(-1, domain.WorkoutSet{Reps: 8, Weight: 135}), ErrNoSuchExercise)
	assert.ErrorIs(t, m.AddSet(0, domain.WorkoutSet{Reps: 0, Weight: 135}), ErrInvalidSet)
	assert.ErrorIs(t, m.AddSet(0, domain.WorkoutSet{Reps: 8, Weight: -5}), ErrInvalidSet)

	require.NoError(t, m.AddSet(0, domain.WorkoutSet{Reps: 8, Weight: 135}))
	require.NoError(t, m.AddSet(0, domain.WorkoutSet{Reps: 6, Weight: 155}))

	sets := m.Draft().Exercises[0].Sets
	require.Len(t, sets, 2)
	// Performed order is preserved.
	assert.Equal(t, domain.WorkoutSet{Reps: 8, Weight: 135}, sets[0])
	assert.Equal(t, domain.WorkoutSet{Reps: 6, Weight: 155}, sets[1])
}

func TestMachine_ReplaceExercise(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.AddExercise(benchPress(domain.WorkoutSet{Reps: 8, Weight: 135})))

	squat := domain.ExerciseLog{
		Name:         "Squat",
		MuscleGroups: []domain.MuscleGroup{domain.MuscleLegs},
		Sets:         []domain.WorkoutSet{{Reps: 5, Weight: 225}},
	}
	require.NoError(t, m.ReplaceExercise(0, squat))
	assert.ErrorIs(t, m.ReplaceExercise(3, squat), ErrNoSuchExercise)

	draft := m.Draft()
	require.Len(t, draft.Exercises, 1)
	assert.Equal(t, "Squat", draft.Exercises[0].Name)
}

func TestMachine_ElapsedTracksClock(t *testing.T) {
	clock := newTestClock()
	m := NewMachine(&fakeWriter{}, WithClock(clock.now))
	require.NoError(t, m.Start("user-1"))

	clock.advance(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, m.Elapsed())

	require.NoError(t, m.Finish())
	clock.advance(time.Hour)
	// Frozen at finish time.
	assert.Equal(t, 10*time.Minute, m.Elapsed())
}

func TestMachine_ImmediateFinishZeroDuration(t *testing.T) {
	clock := newTestClock()
	m := NewMachine(&fakeWriter{}, WithClock(clock.now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.Finish())

	d, ok := m.Draft().Duration()
	require.True(t, ok)
	assert.Zero(t, d)
}

func TestMachine_DoubleFinishKeepsFirstEndTime(t *testing.T) {
	clock := newTestClock()
	m := NewMachine(&fakeWriter{}, WithClock(clock.now))
	require.NoError(t, m.Start("user-1"))

	clock.advance(30 * time.Minute)
	require.NoError(t, m.Finish())
	first := *m.Draft().EndTime

	clock.advance(5 * time.Minute)
	require.NoError(t, m.Finish()) // no-op
	assert.Equal(t, first, *m.Draft().EndTime)
	assert.Equal(t, StateFinishing, m.State())
}

func TestMachine_PublishFlow(t *testing.T) {
	clock := newTestClock()
	writer := &fakeWriter{}
	m := NewMachine(writer, WithClock(clock.now))

	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.AddExercise(benchPress(domain.WorkoutSet{Reps: 8, Weight: 135})))
	clock.advance(45 * time.Minute)
	require.NoError(t, m.Finish())

	postID, err := m.Publish(context.Background(), "Push day", "felt strong")
	require.NoError(t, err)
	assert.Equal(t, "post-1", postID)

	assert.Equal(t, 1, writer.calls)
	assert.Equal(t, "user-1", writer.authorID)
	assert.Equal(t, "Push day", writer.title)
	assert.Equal(t, "felt strong", writer.desc)
	assert.Equal(t, 45*time.Minute, writer.payload.Duration())
	require.Len(t, writer.payload.Exercises, 1)
	assert.Equal(t, "Bench Press", writer.payload.Exercises[0].Name)

	// Back to Idle, draft gone.
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.Draft().UserID)
}

func TestMachine_PublishRequiresFinishing(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	_, err := m.Publish(context.Background(), "Push day", "")
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, m.Start("user-1"))
	_, err = m.Publish(context.Background(), "Push day", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMachine_PublishRequiresTitle(t *testing.T) {
	m := NewMachine(&fakeWriter{}, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.Finish())

	_, err := m.Publish(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, StateFinishing, m.State())
}

func TestMachine_PublishFailurePreservesDraft(t *testing.T) {
	writer := &fakeWriter{err: errors.New("store down")}
	m := NewMachine(writer, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.AddExercise(benchPress(domain.WorkoutSet{Reps: 8, Weight: 135})))
	require.NoError(t, m.Finish())

	_, err := m.Publish(context.Background(), "Push day", "")
	require.Error(t, err)
	assert.Equal(t, StateFinishing, m.State())
	assert.Len(t, m.Draft().Exercises, 1)

	// Retry succeeds once the store recovers.
	writer.err = nil
	postID, err := m.Publish(context.Background(), "Push day", "")
	require.NoError(t, err)
	assert.Equal(t, "post-1", postID)
	assert.Equal(t, StateIdle, m.State())
}

func TestMachine_Discard(t *testing.T) {
	writer := &fakeWriter{}
	m := NewMachine(writer, WithClock(newTestClock().now))
	require.NoError(t, m.Start("user-1"))
	require.NoError(t, m.AddExercise(benchPress(domain.WorkoutSet{Reps: 8, Weight: 135})))

	require.NoError(t, m.Discard())
	assert.Equal(t, StateIdle, m.State())
	assert.Zero(t, writer.calls)

	// A new session starts clean.
	require.NoError(t, m.Start("user-1"))
	assert.Empty(t, m.Draft().Exercises)
}

func TestManager_OneMachinePerUser(t *testing.T) {
	mgr := NewManager(&fakeWriter{})
	a := mgr.ForUser("user-a")
	b := mgr.ForUser("user-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, mgr.ForUser("user-a"))

	require.NoError(t, a.Start("user-a"))
	assert.Equal(t, StateActive, a.State())
	assert.Equal(t, StateIdle, b.State())
}
