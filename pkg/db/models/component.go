package models

import "time"

// Component is a database model for a component.
type Component struct {
	ID        int64     `db:"id"`
	OrgID     int64     `db:"org_id"`
	Name      string    `db:"name"`
	Public    bool      `db:"public"`
	Downloads int64     `db:"downloads"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ComponentSummary is a component joined with its organization, owner, and
// latest version. LatestVersion is empty when the component has no versions.
type ComponentSummary struct {
	Component
	OrgName       string `db:"org_name"`
	OwnerID       int64  `db:"owner_id"`
	OwnerEmail    string `db:"owner_email"`
	LatestVersion string `db:"latest_version"`
}
