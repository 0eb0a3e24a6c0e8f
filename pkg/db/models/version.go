package models

import "time"

// Version is an immutable component version. Content is empty when the
// payload lives in external blob storage under BlobKey.
type Version struct {
	ID          int64     `db:"id"`
	ComponentID int64     `db:"component_id"`
	Version     string    `db:"version"`
	Content     string    `db:"content"`
	BlobKey     string    `db:"blob_key"`
	Metadata    string    `db:"metadata"`
	CreatedAt   time.Time `db:"created_at"`
}
