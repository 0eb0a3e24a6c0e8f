package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/cmd"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/migrate"
)

var (
	rollback bool

	migrateCmd = &cobra.Command{
		Use:                "migrate",
		Short:              "Migrate the database to the latest version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			dbx := db.FromContext(ctx)
			if rollback {
				if err := migrate.Rollback(ctx, dbx); err != nil {
					return fmt.Errorf("rollback: %w", err)
				}
			} else if err := migrate.Migrate(ctx, dbx); err != nil {
				return fmt.Errorf("migration: %w", err)
			}

			v, err := migrate.Version(ctx, dbx)
			if err != nil {
				return err
			}

			c.Printf("Database at version %d\n", v)
			return nil
		},
	}
)

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "rollback the database to the previous version")
}
