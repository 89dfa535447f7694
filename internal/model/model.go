package model

import (
	"github.com/google/uuid"
)

// User is a person registered with the service. Every user owns exactly one contact.
type User struct {
	Id    uuid.UUID `json:"id"    db:"id"`
	Name  string    `json:"name"  db:"name"`
	Genre Genre     `json:"genre" db:"genre"`
}

// Contact holds the reachability data of a user.
type Contact struct {
	Id     uuid.UUID `json:"id"      db:"id"`
	Email  string    `json:"email"   db:"email"`
	UserId uuid.UUID `json:"user_id" db:"user_id"`
}

// UserWithContact is a user enriched with the email of its contact.
type UserWithContact struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Genre Genre     `json:"genre"`
	Email string    `json:"email"`
}

// NewUser is the request body for creating a user together with its contact.
type NewUser struct {
	Name  string `json:"name"`
	Genre Genre  `json:"genre"`
	Email string `json:"email"`
}

// UserPatch holds the fields of a user update. Only non-nil fields are applied.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Genre *Genre  `json:"genre,omitempty"`
	Email *string `json:"email,omitempty"`
}

// ContactPatch holds the fields of a contact update. Only non-nil fields are applied.
type ContactPatch struct {
	Email *string `json:"email,omitempty"`
}

// Join combines a user and its contact into the composed read shape.
func Join(user User, contact Contact) UserWithContact {
	return UserWithContact{
		Id:    user.Id,
		Name:  user.Name,
		Genre: user.Genre,
		Email: contact.Email,
	}
}
