package domain

// User is a member of the app. The document lives in the "users"
// collection; the core only reads it for attribution and profile
// display, ownership sits with the auth collaborator.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}
