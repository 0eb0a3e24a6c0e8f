package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:    "man",
	Short:  "Generate man pages",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		manPage = manPage.WithSection("Environment", "Every configuration option can be set with a TRICOX_ prefixed\n"+
			"environment variable, for example TRICOX_HTTP_LISTEN_ADDR.")
		fmt.Println(manPage.Build(roff.NewDocument()))
		return nil
	},
}
