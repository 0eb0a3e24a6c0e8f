package proto

import "time"

// User is an interface representing a user.
type User interface {
	// ID returns the user's ID.
	ID() int64
	// Email returns the user's email address.
	Email() string
	// Password returns the user's password hash.
	Password() string
	// CreatedAt returns the time the user was created.
	CreatedAt() time.Time
	// Orgs returns the organizations owned by the user.
	Orgs() []Org
}
