package migrate

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/tricox-dev/tricox/pkg/db/internal/test"
)

func TestMigrate(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	is.NoErr(err)
	is.NoErr(Migrate(ctx, dbx))

	v, err := Version(ctx, dbx)
	is.NoErr(err)
	is.Equal(v, int64(len(migrations)))

	// Running again is a no-op.
	is.NoErr(Migrate(ctx, dbx))

	for _, table := range []string{"users", "organizations", "components", "versions", "access_tokens"} {
		var n int
		is.NoErr(dbx.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table))
		is.Equal(n, 0)
	}
}

func TestRollback(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	dbx, err := test.OpenSqlite(ctx, t)
	is.NoErr(err)

	is.True(Rollback(ctx, dbx) != nil) // nothing applied yet

	is.NoErr(Migrate(ctx, dbx))
	for range migrations {
		is.NoErr(Rollback(ctx, dbx))
	}

	v, err := Version(ctx, dbx)
	is.NoErr(err)
	is.Equal(v, int64(0))

	var name string
	err = dbx.GetContext(ctx, &name, "SELECT name FROM sqlite_master WHERE type='table' AND name='users'")
	is.True(err != nil) // users table is gone
}

func TestToSnakeCase(t *testing.T) {
	is := is.New(t)
	is.Equal(toSnakeCase("create tables"), "create_tables")
	is.Equal(toSnakeCase("CreateTables"), "create_tables")
	is.Equal(toSnakeCase("add-blob keys"), "add_blob_keys")
}
