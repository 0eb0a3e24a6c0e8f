package proto

import "time"

// AccessToken represents an access token. Token holds the raw secret, kept
// for display.
type AccessToken struct {
	ID         int64
	Name       string
	UserID     int64
	Token      string
	LastUsedAt time.Time
	CreatedAt  time.Time
}
