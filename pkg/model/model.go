package model

// User is the client side view of a user as returned by the REST API. Email is only filled by
// the endpoints that join the user with its contact.
type User struct {
	Id    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Genre *string `json:"genre,omitempty"`
	Email *string `json:"email,omitempty"`
}
