package proto

import "time"

// Org is an interface representing an organization.
type Org interface {
	// ID returns the org's ID.
	ID() int64
	// Name returns the org's name.
	Name() string
	// OwnerID returns the ID of the owning user.
	OwnerID() int64
	// CreatedAt returns the time the org was created.
	CreatedAt() time.Time
}
