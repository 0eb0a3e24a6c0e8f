package proto

import "time"

// ZeroVersion is reported for components without versions.
const ZeroVersion = "0.0.0"

// Component is a component listing entry.
type Component struct {
	ID            int64
	Name          string
	OrgID         int64
	OrgName       string
	OwnerID       int64
	OwnerEmail    string
	Public        bool
	Downloads     int64
	LatestVersion string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ComponentDetails is a component with the content of its latest version.
type ComponentDetails struct {
	Component
	Content  string
	Metadata map[string]interface{}
}

// Version is a component version. Content is only populated when a
// version is fetched.
type Version struct {
	ID        int64
	Version   string
	Content   string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

// Package is the result of docking a component.
type Package struct {
	Org       string
	Component string
	Version   string
	Content   string
	Metadata  map[string]interface{}
}

// ShipOptions describes a new component version.
type ShipOptions struct {
	Name         string
	Org          string
	Content      string
	Dependencies []string
	Public       bool
}

// Stats are registry wide counters.
type Stats struct {
	TotalShips   int64
	TotalFetches int64
}
