package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestWrapErrorBadNoRows(t *testing.T) {
	for _, e := range []error{
		fmt.Errorf("foo"),
		errors.New("bar"),
	} {
		if err := WrapError(e); err != e {
			t.Errorf("WrapError(%v) => %v, want %v", e, err, e)
		}
	}
}

func TestWrapErrorGoodNoRows(t *testing.T) {
	if err := WrapError(sql.ErrNoRows); err != ErrRecordNotFound {
		t.Errorf("WrapError(sql.ErrNoRows) => %v, want %v", err, ErrRecordNotFound)
	}
	wrapped := fmt.Errorf("get user: %w", sql.ErrNoRows)
	if err := WrapError(wrapped); err != ErrRecordNotFound {
		t.Errorf("WrapError(%v) => %v, want %v", wrapped, err, ErrRecordNotFound)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if err := WrapError(nil); err != nil {
		t.Errorf("WrapError(nil) => %v, want nil", err)
	}
}

func TestWrapErrorPostgresUnique(t *testing.T) {
	err := &pq.Error{Code: "23505", Message: "duplicate key value"}
	if got := WrapError(err); got != ErrDuplicateKey {
		t.Errorf("WrapError(%v) => %v, want %v", err, got, ErrDuplicateKey)
	}
	other := &pq.Error{Code: "23503"}
	if got := WrapError(other); got != other {
		t.Errorf("WrapError(%v) => %v, want %v", other, got, other)
	}
}
