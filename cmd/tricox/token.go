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

var tokenCmd = &cobra.Command{
	Use:                "token",
	Aliases:            []string{"access-token"},
	Short:              "Manage access tokens",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	tokenCreateCmd := &cobra.Command{
		Use:   "create ID|EMAIL NAME",
		Short: "Create a new access token for a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			user, err := lookupUser(c, args[0])
			if err != nil {
				return err
			}

			token, err := be.CreateAccessToken(ctx, user.ID(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			c.PrintErrln("Access token created")
			c.Println(token)
			return nil
		},
	}

	tokenListCmd := &cobra.Command{
		Use:     "list ID|EMAIL",
		Aliases: []string{"ls"},
		Short:   "List access tokens of a user",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			user, err := lookupUser(c, args[0])
			if err != nil {
				return err
			}

			tokens, err := be.ListAccessTokens(ctx, user.ID())
			if err != nil {
				return err
			}

			if len(tokens) == 0 {
				c.Println("No tokens found")
				return nil
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				tokens,
				[]string{"ID", "Name", "Created At", "Last Used"},
				func(t proto.AccessToken) ([]string, error) {
					lastUsed := "-"
					if !t.LastUsedAt.IsZero() {
						lastUsed = humanize.Time(t.LastUsedAt)
					}

					return []string{
						strconv.FormatInt(t.ID, 10),
						t.Name,
						humanize.Time(t.CreatedAt),
						lastUsed,
					}, nil
				},
			)
		},
	}

	tokenCmd.AddCommand(
		tokenCreateCmd,
		tokenListCmd,
	)
}
