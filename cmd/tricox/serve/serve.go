package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/cmd"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/migrate"
	"github.com/tricox-dev/tricox/pkg/proto"
)

var (
	shutdownTimeout time.Duration

	// Command is the serve command.
	Command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			cfg := config.FromContext(c.Context())
			if cfg != nil && !cfg.Exist() {
				if err := cfg.WriteConfig(); err != nil {
					return fmt.Errorf("write config file: %w", err)
				}
			}
			return cmd.InitBackendContext(c, args)
		},
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg := config.FromContext(ctx)

			if err := migrate.Migrate(ctx, db.FromContext(ctx)); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}

			if err := provisionAdmin(ctx, cfg, backend.FromContext(ctx)); err != nil {
				return err
			}

			s, err := NewServer(ctx)
			if err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			lch := make(chan error, 1)
			done := make(chan os.Signal, 1)
			doneOnce := sync.OnceFunc(func() { close(done) })

			signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				lch <- s.Start()
				doneOnce()
			}()

			select {
			case err := <-lch:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-done:
			}

			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return s.Shutdown(ctx)
		},
	}
)

func init() {
	Command.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "time to wait for in-flight requests on shutdown")
}

// provisionAdmin creates the admin account when a seed password is
// configured. An existing admin is left untouched.
func provisionAdmin(ctx context.Context, cfg *config.Config, be *backend.Backend) error {
	if cfg.Admin.SeedPassword == "" {
		return nil
	}

	if _, err := be.ProvisionAdmin(ctx, cfg.Admin.SeedPassword); err != nil && !errors.Is(err, proto.ErrUserExist) {
		return fmt.Errorf("provision admin: %w", err)
	}

	return nil
}
