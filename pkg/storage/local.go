package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage is a storage implementation that stores objects on the local
// filesystem.
type LocalStorage struct {
	root string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage.
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Delete implements Storage. Deleting a missing object is not an error.
func (l *LocalStorage) Delete(_ context.Context, name string) error {
	name, err := l.fixPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file %s: %w", name, err)
	}
	return nil
}

// Open implements Storage.
func (l *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	name, err := l.fixPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return f, nil
}

// Put implements Storage. The object is written to a temporary file first
// so readers never observe a partial object.
func (l *LocalStorage) Put(_ context.Context, name string, r io.Reader) (int64, error) {
	name, err := l.fixPath(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	f, err := os.CreateTemp(filepath.Dir(name), ".put-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", name, err)
	}
	defer os.Remove(f.Name()) // nolint: errcheck

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close() // nolint: errcheck
		return n, fmt.Errorf("failed to copy data to file %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close file %s: %w", name, err)
	}
	if err := os.Rename(f.Name(), name); err != nil {
		return n, fmt.Errorf("failed to rename file %s: %w", name, err)
	}
	return n, nil
}

// Exists implements Storage.
func (l *LocalStorage) Exists(_ context.Context, name string) (bool, error) {
	name, err := l.fixPath(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence of file %s: %w", name, err)
}

// fixPath maps an object name to a path under root. Names escaping root
// are rejected.
func (l LocalStorage) fixPath(name string) (string, error) {
	name = strings.ReplaceAll(name, "/", string(os.PathSeparator))
	p := filepath.Join(l.root, name)
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return p, nil
}
