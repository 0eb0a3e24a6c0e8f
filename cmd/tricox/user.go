package main

import (
	"strconv"
	"strings"

	"github.com/caarlos0/tablewriter"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/cmd"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/proto"
)

var userCmd = &cobra.Command{
	Use:                "user",
	Aliases:            []string{"users"},
	Short:              "Manage users",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

// lookupUser resolves a user by numeric ID or email.
func lookupUser(c *cobra.Command, arg string) (proto.User, error) {
	ctx := c.Context()
	be := backend.FromContext(ctx)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return be.UserByID(ctx, id)
	}
	return be.UserByEmail(ctx, arg)
}

func init() {
	userListCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			users, err := be.Users(ctx)
			if err != nil {
				return err
			}

			if len(users) == 0 {
				c.Println("No users found")
				return nil
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				users,
				[]string{"ID", "Email", "Organizations", "Created At"},
				func(u proto.User) ([]string, error) {
					orgs := make([]string, 0, len(u.Orgs()))
					for _, o := range u.Orgs() {
						orgs = append(orgs, o.Name())
					}
					return []string{
						strconv.FormatInt(u.ID(), 10),
						u.Email(),
						strings.Join(orgs, ", "),
						humanize.Time(u.CreatedAt()),
					}, nil
				},
			)
		},
	}

	userDeleteCmd := &cobra.Command{
		Use:     "delete ID|EMAIL",
		Aliases: []string{"rm", "remove"},
		Short:   "Delete a user with their organizations, components, and tokens",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			user, err := lookupUser(c, args[0])
			if err != nil {
				return err
			}

			if _, err := be.DeleteUser(ctx, user.ID()); err != nil {
				return err
			}

			c.Printf("Deleted user %s\n", user.Email())
			return nil
		},
	}

	userCmd.AddCommand(
		userListCmd,
		userDeleteCmd,
	)
}
