// Package session owns the lifecycle of one in-progress workout:
// Idle -> Active -> Finishing -> Idle. All mutation goes through the
// Machine, which serializes access the way the app's single UI thread
// did.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gymsocial/internal/domain"

	"github.com/google/uuid"
)

// State of a workout session.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateFinishing State = "finishing"
)

// --- Error Definitions ---
var (
	// ErrInvalidState marks an operation invoked from the wrong state.
	// This is a precondition violation, not retryable.
	ErrInvalidState = errors.New("operation not valid in current session state")

	ErrEmptyTitle     = errors.New("post title must not be empty")
	ErrNoSuchExercise = errors.New("exercise index out of range")
	ErrInvalidSet     = errors.New("set requires positive reps and non-negative weight")
	ErrMissingUser    = errors.New("session requires a user id")
)

// PostWriter publishes a finished workout. Implemented by the post
// service on top of the store and codec.
type PostWriter interface {
	CreateWorkoutPost(ctx context.Context, authorID, title, description string, w domain.WorkoutPayload) (string, error)
}

// TickFunc receives the elapsed time of the active session, once per
// second. Purely a derived display value, never persisted.
type TickFunc func(elapsed time.Duration)

// Machine is the workout session state machine for one user. All
// operations are serialized under one mutex, the moral equivalent of
// the single UI thread every mutation used to run on.
type Machine struct {
	writer PostWriter
	onTick TickFunc
	now    func() time.Time

	mu       sync.Mutex
	state    State
	draft    domain.DraftWorkout
	stopTick chan struct{}
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the machine's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithTick registers a 1 Hz elapsed-time callback.
func WithTick(fn TickFunc) Option {
	return func(m *Machine) { m.onTick = fn }
}

// NewMachine creates a session machine in the Idle state.
func NewMachine(writer PostWriter, opts ...Option) *Machine {
	m := &Machine{
		writer: writer,
		now:    func() time.Time { return time.Now().UTC() },
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns a copy of the current draft. Meaningless in Idle.
func (m *Machine) Draft() domain.DraftWorkout {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft := m.draft
	draft.Exercises = append([]domain.ExerciseLog(nil), m.draft.Exercises...)
	return draft
}

// Elapsed is the running duration of the session: now minus start
// while active, the fixed duration once finishing, zero in Idle.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateActive:
		return m.now().Sub(m.draft.StartTime)
	case StateFinishing:
		return m.draft.EndTime.Sub(m.draft.StartTime)
	}
	return 0
}

// Start begins a new session for the user: fresh draft, start time
// fixed now, timer running. Valid only from Idle.
func (m *Machine) Start(userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return fmt.Errorf("start session: %w (state %s)", ErrInvalidState, m.state)
	}
	m.draft = domain.DraftWorkout{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: m.now(),
		Exercises: []domain.ExerciseLog{},
	}
	m.state = StateActive
	m.startTimer()
	return nil
}

// AddExercise appends an exercise log to the draft. Valid only while
// Active.
func (m *Machine) AddExercise(log domain.ExerciseLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return fmt.Errorf("add exercise: %w (state %s)", ErrInvalidState, m.state)
	}
	for _, set := range log.Sets {
		if set.Reps <= 0 || set.Weight < 0 {
			return ErrInvalidSet
		}
	}
	m.draft.Exercises = append(m.draft.Exercises, log)
	return nil
}

// AddSet appends a set to the exercise at the given index. Valid only
// while Active; set order is performed order.
func (m *Machine) AddSet(exerciseIndex int, set domain.WorkoutSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return fmt.Errorf("add set: %w (state %s)", ErrInvalidState, m.state)
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.draft.Exercises) {
		return ErrNoSuchExercise
	}
	if set.Reps <= 0 || set.Weight < 0 {
		return ErrInvalidSet
	}
	ex := &m.draft.Exercises[exerciseIndex]
	ex.Sets = append(ex.Sets, set)
	return nil
}

// ReplaceExercise swaps out a previously logged exercise, supporting
// edits within the same session before finishing.
func (m *Machine) ReplaceExercise(exerciseIndex int, log domain.ExerciseLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return fmt.Errorf("replace exercise: %w (state %s)", ErrInvalidState, m.state)
	}
	if exerciseIndex < 0 || exerciseIndex >= len(m.draft.Exercises) {
		return ErrNoSuchExercise
	}
	for _, set := range log.Sets {
		if set.Reps <= 0 || set.Weight < 0 {
			return ErrInvalidSet
		}
	}
	m.draft.Exercises[exerciseIndex] = log
	return nil
}

// Finish stamps the end time and stops the timer. The first call
// wins: calling Finish again while Finishing is a no-op and keeps the
// original end time.
func (m *Machine) Finish() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateFinishing {
		return nil
	}
	if m.state != StateActive {
		return fmt.Errorf("finish session: %w (state %s)", ErrInvalidState, m.state)
	}
	end := m.now()
	m.draft.EndTime = &end
	m.state = StateFinishing
	m.stopTimer()
	return nil
}

// Publish turns the finished draft into a workout post. Valid only
// while Finishing; requires a non-empty title. On success the machine
// returns to Idle with the draft discarded. On store failure the
// draft and state are preserved so the caller can retry.
func (m *Machine) Publish(ctx context.Context, title, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFinishing {
		return "", fmt.Errorf("publish: %w (state %s)", ErrInvalidState, m.state)
	}
	if title == "" {
		return "", ErrEmptyTitle
	}
	payload, ok := m.draft.Payload()
	if !ok {
		// Finishing guarantees EndTime is set.
		return "", fmt.Errorf("publish: %w (draft has no end time)", ErrInvalidState)
	}
	postID, err := m.writer.CreateWorkoutPost(ctx, m.draft.UserID, title, description, payload)
	if err != nil {
		return "", fmt.Errorf("create workout post: %w", err)
	}
	m.reset()
	return postID, nil
}

// Discard abandons the session without persisting anything. Valid
// from Active or Finishing.
func (m *Machine) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive && m.state != StateFinishing {
		return fmt.Errorf("discard: %w (state %s)", ErrInvalidState, m.state)
	}
	m.reset()
	return nil
}

func (m *Machine) reset() {
	m.stopTimer()
	m.draft = domain.DraftWorkout{}
	m.state = StateIdle
}

func (m *Machine) startTimer() {
	if m.onTick == nil {
		return
	}
	stop := make(chan struct{})
	m.stopTick = stop
	start := m.draft.StartTime
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				m.onTick(now.UTC().Sub(start))
			}
		}
	}()
}

func (m *Machine) stopTimer() {
	if m.stopTick != nil {
		close(m.stopTick)
		m.stopTick = nil
	}
}
