// Package codec maps between domain values and the loosely-typed
// document shape of the store.
//
// Encoding is strict and total: every valid domain value produces
// exactly one document shape. Decoding is tolerant and best-effort:
// malformed records are dropped at the innermost level that can absorb
// them, so one bad entry never hides an otherwise valid batch. Decode
// functions are pure and never return errors.
package codec

import (
	"time"

	"gymsocial/internal/domain"
	"gymsocial/internal/store"
)

// Document field names. These are the wire contract with the store;
// changing one is a schema migration.
const (
	FieldType        = "type"
	FieldAuthorID    = "authorID"
	FieldAuthorName  = "authorName"
	FieldTimestamp   = "timestamp"
	FieldLikes       = "likes"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldWorkout     = "workout"

	fieldStartTime    = "startTime"
	fieldEndTime      = "endTime"
	fieldExercises    = "exercises"
	fieldWeightUnit   = "weightUnit"
	fieldName         = "name"
	fieldMuscleGroups = "muscleGroups"
	fieldSets         = "sets"
	fieldReps         = "reps"
	fieldWeight       = "weight"

	fieldDisplayName = "displayName"
	fieldEmail       = "email"
	fieldPhotoURL    = "photoURL"
)

// WeightUnitPounds is recorded on every encoded workout. The persisted
// schema historically never named the unit; older documents without it
// are read as pounds.
const WeightUnitPounds = "lb"

// EncodeWorkout encodes the persisted workout payload.
func EncodeWorkout(w domain.WorkoutPayload) store.Document {
	exercises := make([]any, 0, len(w.Exercises))
	for _, log := range w.Exercises {
		exercises = append(exercises, encodeExercise(log))
	}
	return store.Document{
		fieldStartTime:  w.StartTime,
		fieldEndTime:    w.EndTime,
		fieldWeightUnit: WeightUnitPounds,
		fieldExercises:  exercises,
	}
}

func encodeExercise(log domain.ExerciseLog) store.Document {
	groups := make([]any, 0, len(log.MuscleGroups))
	for _, g := range log.MuscleGroups {
		groups = append(groups, string(g))
	}
	sets := make([]any, 0, len(log.Sets))
	for _, set := range log.Sets {
		sets = append(sets, store.Document{
			fieldReps:   set.Reps,
			fieldWeight: set.Weight,
		})
	}
	return store.Document{
		fieldName:         log.Name,
		fieldMuscleGroups: groups,
		fieldSets:         sets,
	}
}

// EncodeWorkoutPost assembles a complete workout post document for
// creation. The timestamp is a server-timestamp sentinel resolved by
// the store at write time; likes start at zero. An empty description
// is omitted rather than stored as "".
func EncodeWorkoutPost(authorID, authorName, title, description string, w domain.WorkoutPayload) store.Document {
	doc := store.Document{
		FieldType:       domain.PostTypeWorkout,
		FieldAuthorID:   authorID,
		FieldAuthorName: authorName,
		FieldTimestamp:  store.ServerTimestamp,
		FieldLikes:      0,
		FieldTitle:      title,
		FieldWorkout:    EncodeWorkout(w),
	}
	if description != "" {
		doc[FieldDescription] = description
	}
	return doc
}

// DecodePost decodes one post snapshot. It returns false when any
// required top-level or workout-level field is missing or has the
// wrong type; within the workout, malformed exercises and sets are
// skipped individually and their siblings kept.
//
// A post without a title is dropped. That matches the current-schema
// readers of the backend; readers of the pre-title schema are gone.
func DecodePost(snap store.Snapshot) (domain.Post, bool) {
	d := snap.Data

	authorID, ok := asString(d[FieldAuthorID])
	if !ok {
		return domain.Post{}, false
	}
	authorName, ok := asString(d[FieldAuthorName])
	if !ok {
		return domain.Post{}, false
	}
	timestamp, ok := asTime(d[FieldTimestamp])
	if !ok {
		return domain.Post{}, false
	}
	likes, ok := asInt(d[FieldLikes])
	if !ok {
		return domain.Post{}, false
	}
	title, ok := asString(d[FieldTitle])
	if !ok {
		return domain.Post{}, false
	}
	workoutMap, ok := asDocument(d[FieldWorkout])
	if !ok {
		return domain.Post{}, false
	}
	workout, ok := decodeWorkout(workoutMap)
	if !ok {
		return domain.Post{}, false
	}
	description, _ := asString(d[FieldDescription])

	return domain.Post{
		ID:          snap.ID,
		AuthorID:    authorID,
		AuthorName:  authorName,
		Timestamp:   timestamp,
		Likes:       likes,
		Title:       title,
		Description: description,
		Workout:     workout,
	}, true
}

// DecodePosts decodes a batch, dropping documents that fail to decode
// and preserving the snapshot order of the rest.
func DecodePosts(snapshots []store.Snapshot) []domain.Post {
	posts := make([]domain.Post, 0, len(snapshots))
	for _, snap := range snapshots {
		if post, ok := DecodePost(snap); ok {
			posts = append(posts, post)
		}
	}
	return posts
}

func decodeWorkout(d store.Document) (domain.WorkoutPayload, bool) {
	start, ok := asTime(d[fieldStartTime])
	if !ok {
		return domain.WorkoutPayload{}, false
	}
	end, ok := asTime(d[fieldEndTime])
	if !ok {
		return domain.WorkoutPayload{}, false
	}
	rawExercises, ok := asSlice(d[fieldExercises])
	if !ok {
		return domain.WorkoutPayload{}, false
	}

	var exercises []domain.ExerciseLog
	for _, raw := range rawExercises {
		entry, ok := asDocument(raw)
		if !ok {
			continue
		}
		if log, ok := decodeExercise(entry); ok {
			exercises = append(exercises, log)
		}
	}
	return domain.WorkoutPayload{
		StartTime: start,
		EndTime:   end,
		Exercises: exercises,
	}, true
}

func decodeExercise(d store.Document) (domain.ExerciseLog, bool) {
	name, ok := asString(d[fieldName])
	if !ok {
		return domain.ExerciseLog{}, false
	}
	rawSets, ok := asSlice(d[fieldSets])
	if !ok {
		return domain.ExerciseLog{}, false
	}

	var sets []domain.WorkoutSet
	for _, raw := range rawSets {
		entry, ok := asDocument(raw)
		if !ok {
			continue
		}
		reps, repsOK := asInt(entry[fieldReps])
		weight, weightOK := asFloat(entry[fieldWeight])
		if !repsOK || !weightOK {
			continue
		}
		sets = append(sets, domain.WorkoutSet{Reps: reps, Weight: weight})
	}

	return domain.ExerciseLog{
		Name:         name,
		MuscleGroups: decodeMuscleGroups(d[fieldMuscleGroups]),
		Sets:         sets,
	}, true
}

// decodeMuscleGroups tolerates a missing list (legacy data) and drops
// unknown values.
func decodeMuscleGroups(v any) []domain.MuscleGroup {
	raw, ok := asSlice(v)
	if !ok {
		return nil
	}
	var groups []domain.MuscleGroup
	for _, entry := range raw {
		s, ok := asString(entry)
		if !ok {
			continue
		}
		if g, known := domain.ParseMuscleGroup(s); known {
			groups = append(groups, g)
		}
	}
	return groups
}

// EncodeUser encodes the user profile document. The photo URL is
// omitted while unset.
func EncodeUser(u domain.User) store.Document {
	doc := store.Document{
		fieldDisplayName: u.DisplayName,
		fieldEmail:       u.Email,
	}
	if u.PhotoURL != "" {
		doc[fieldPhotoURL] = u.PhotoURL
	}
	return doc
}

// DecodeUser decodes a user snapshot. Missing fields default to empty
// strings; a user document is never dropped.
func DecodeUser(snap store.Snapshot) domain.User {
	displayName, _ := asString(snap.Data[fieldDisplayName])
	email, _ := asString(snap.Data[fieldEmail])
	photoURL, _ := asString(snap.Data[fieldPhotoURL])
	return domain.User{
		ID:          snap.ID,
		DisplayName: displayName,
		Email:       email,
		PhotoURL:    photoURL,
	}
}

// EncodeCustomExercise encodes a user catalog entry.
func EncodeCustomExercise(e domain.CustomExercise) store.Document {
	groups := make([]any, 0, len(e.MuscleGroups))
	for _, g := range e.MuscleGroups {
		groups = append(groups, string(g))
	}
	return store.Document{
		fieldName:         e.Name,
		fieldMuscleGroups: groups,
	}
}

// DecodeCustomExercise decodes a user catalog entry; entries without a
// name are dropped.
func DecodeCustomExercise(snap store.Snapshot) (domain.CustomExercise, bool) {
	name, ok := asString(snap.Data[fieldName])
	if !ok {
		return domain.CustomExercise{}, false
	}
	return domain.CustomExercise{
		ID:           snap.ID,
		Name:         name,
		MuscleGroups: decodeMuscleGroups(snap.Data[fieldMuscleGroups]),
	}, true
}

// --- dynamic value helpers ---
//
// Document stores do not preserve Go's numeric types: an int written
// today may come back as int64 or float64. The helpers below absorb
// that; anything else is a type mismatch and the caller drops the
// record.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

func asDocument(v any) (store.Document, bool) {
	d, ok := v.(store.Document)
	return d, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch tv := v.(type) {
	case int:
		return tv, true
	case int32:
		return int(tv), true
	case int64:
		return int(tv), true
	case float64:
		if tv == float64(int(tv)) {
			return int(tv), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case int64:
		return float64(tv), true
	}
	return 0, false
}
