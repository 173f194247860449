package domain

import "time"

// PostTypeWorkout is the value of the "type" field on workout posts.
const PostTypeWorkout = "workout"

// Post is a published workout on the social feed. Created once at
// publish time; Likes may be changed by other collaborators, the rest
// is immutable after creation.
type Post struct {
	ID          string         `json:"id"` // store-assigned document ID
	AuthorID    string         `json:"authorID"`
	AuthorName  string         `json:"authorName"`
	Timestamp   time.Time      `json:"timestamp"` // server-assigned creation time
	Likes       int            `json:"likes"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Workout     WorkoutPayload `json:"workout"`
}
