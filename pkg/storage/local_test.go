package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestLocalStorage(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	s := NewLocalStorage(t.TempDir())

	ok, err := s.Exists(ctx, "components/1/1")
	is.NoErr(err)
	is.True(!ok)

	n, err := s.Put(ctx, "components/1/1", strings.NewReader("export const Button = 1"))
	is.NoErr(err)
	is.Equal(n, int64(23))

	ok, err = s.Exists(ctx, "components/1/1")
	is.NoErr(err)
	is.True(ok)

	rc, err := s.Open(ctx, "components/1/1")
	is.NoErr(err)
	b, err := io.ReadAll(rc)
	is.NoErr(err)
	is.NoErr(rc.Close())
	is.Equal(string(b), "export const Button = 1")

	is.NoErr(s.Delete(ctx, "components/1/1"))
	is.NoErr(s.Delete(ctx, "components/1/1")) // idempotent

	_, err = s.Open(ctx, "components/1/1")
	is.True(errors.Is(err, ErrNotExist))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	is := is.New(t)
	s := NewLocalStorage(t.TempDir())
	_, err := s.Put(context.TODO(), "../outside", strings.NewReader("x"))
	is.True(err != nil)
	_, err = s.Open(context.TODO(), "")
	is.True(err != nil)
}
