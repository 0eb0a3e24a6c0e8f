package db_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/internal/test"
)

func TestOpenUnknownDriver(t *testing.T) {
	_, err := db.Open(context.TODO(), "invalid", "")
	if err == nil {
		t.Fatal("Open(invalid) => nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("Open(invalid) => %v, want error containing 'unknown driver'", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dbx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err = dbx.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("TransactionContext => %v, want %v", err, boom)
	}

	var n int
	if err := dbx.GetContext(ctx, &n, "SELECT COUNT(*) FROM t"); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("rows after rollback => %d, want 0", n)
	}
}

func TestWrapErrorSqliteUnique(t *testing.T) {
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dbx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)"); err != nil {
		t.Fatal(err)
	}
	if _, err := dbx.ExecContext(ctx, "INSERT INTO t (v) VALUES ('a')"); err != nil {
		t.Fatal(err)
	}
	_, err = dbx.ExecContext(ctx, "INSERT INTO t (v) VALUES ('a')")
	if got := db.WrapError(err); !errors.Is(got, db.ErrDuplicateKey) {
		t.Errorf("WrapError(%v) => %v, want %v", err, got, db.ErrDuplicateKey)
	}
}
