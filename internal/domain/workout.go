package domain

import "time"

// WorkoutSet is a single set within an exercise. Identity is
// positional within its exercise; sets carry no stable key.
type WorkoutSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"` // user's chosen unit, pounds by default
}

// ExerciseLog records one exercise within a workout, containing the
// sets in the order they were performed. MuscleGroups may be empty for
// legacy data.
type ExerciseLog struct {
	Name         string        `json:"name"`
	MuscleGroups []MuscleGroup `json:"muscleGroups,omitempty"`
	Sets         []WorkoutSet  `json:"sets"`
}

// WorkoutPayload is the persisted, immutable form of a workout. It is
// embedded inside a Post, never stored standalone. A persisted workout
// is always finished, so both timestamps are required.
type WorkoutPayload struct {
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Exercises []ExerciseLog `json:"exercises"`
}

// Duration is the wall-clock length of the workout.
func (w WorkoutPayload) Duration() time.Duration {
	return w.EndTime.Sub(w.StartTime)
}

// DraftWorkout is the mutable, in-progress aggregate owned by an
// active session. EndTime stays nil until the session finishes; once
// set it is never re-stamped.
type DraftWorkout struct {
	ID        string        `json:"id"` // session-local, not persisted
	UserID    string        `json:"userId"`
	StartTime time.Time     `json:"startTime"`
	EndTime   *time.Time    `json:"endTime,omitempty"`
	Exercises []ExerciseLog `json:"exercises"`
}

// Duration returns the draft's duration, or false while the draft is
// still active (no end time yet).
func (d DraftWorkout) Duration() (time.Duration, bool) {
	if d.EndTime == nil {
		return 0, false
	}
	return d.EndTime.Sub(d.StartTime), true
}

// Payload converts a finished draft into its persisted form. An
// unfinished draft yields false.
func (d DraftWorkout) Payload() (WorkoutPayload, bool) {
	if d.EndTime == nil {
		return WorkoutPayload{}, false
	}
	return WorkoutPayload{
		StartTime: d.StartTime,
		EndTime:   *d.EndTime,
		Exercises: d.Exercises,
	}, true
}
