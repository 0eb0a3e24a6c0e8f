// Package storage stores component version contents outside the database.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when an object does not exist.
var ErrNotExist = errors.New("object does not exist")

// Storage is a flat object store keyed by slash separated names.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
