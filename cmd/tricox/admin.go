package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/cmd"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/migrate"
)

var (
	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Administrate the registry",
	}

	adminPassword string

	provisionCmd = &cobra.Command{
		Use:                "provision",
		Short:              "Create the administrator account",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			if err := migrate.Migrate(ctx, db.FromContext(ctx)); err != nil {
				return fmt.Errorf("migration: %w", err)
			}

			be := backend.FromContext(ctx)
			user, err := be.ProvisionAdmin(ctx, adminPassword)
			if err != nil {
				return err
			}

			orgs := user.Orgs()
			org := "-"
			if len(orgs) > 0 {
				org = orgs[0].Name()
			}
			c.Printf("Provisioned admin %s (org %q)\n", user.Email(), org)
			return nil
		},
	}
)

func init() {
	provisionCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "password of the administrator account")
	provisionCmd.MarkFlagRequired("password") // nolint: errcheck
	adminCmd.AddCommand(provisionCmd)
}
