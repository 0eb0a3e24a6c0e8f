package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/cmd/tricox/serve"
	"github.com/tricox-dev/tricox/pkg/config"
	logr "github.com/tricox-dev/tricox/pkg/log"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	rootCmd = &cobra.Command{
		Use:          "tricox",
		Short:        "A private component registry",
		Long:         "Tricox is a self-hostable registry for sharing UI components across organizations.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(
		serve.Command,
		migrateCmd,
		adminCmd,
		userCmd,
		tokenCmd,
		manCmd,
	)

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

func main() {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	if cfg.Exist() {
		if err := cfg.ParseFile(); err != nil {
			log.Fatal("parse config file", "err", err)
		}
	}

	if err := cfg.ParseEnv(); err != nil {
		log.Fatal("parse environment", "err", err)
	}

	ctx = config.WithContext(ctx, cfg)
	logger, f, err := logr.NewLogger(cfg)
	if err != nil {
		log.Errorf("failed to create logger: %v", err)
		logger = log.Default()
	}

	log.SetDefault(logger)
	ctx = log.WithContext(ctx, logger)

	// Set the max number of processes to the number of CPUs.
	// This is useful when running tricox in a container.
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warn("couldn't set automaxprocs", "error", err)
	}

	err = rootCmd.ExecuteContext(ctx)
	if f != nil {
		f.Close() // nolint: errcheck
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
