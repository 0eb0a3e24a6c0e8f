package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/cron"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/stats"
	"github.com/tricox-dev/tricox/pkg/web"
	"golang.org/x/sync/errgroup"

	_ "github.com/tricox-dev/tricox/pkg/jobs" // register jobs
)

// Server is the Tricox server.
type Server struct {
	HTTPServer  *web.HTTPServer
	StatsServer *stats.StatsServer
	Cron        *cron.Scheduler
	Config      *config.Config
	Backend     *backend.Backend
	DB          *db.DB

	logger *log.Logger
	ctx    context.Context
}

// NewServer returns a new *Server configured to serve the registry API and
// metrics. The context must carry the config, backend, and database.
func NewServer(ctx context.Context) (*Server, error) {
	var err error
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	if cfg == nil || be == nil {
		return nil, errors.New("server context is missing config or backend")
	}

	srv := &Server{
		Config:  cfg,
		Backend: be,
		DB:      db.FromContext(ctx),
		logger:  log.FromContext(ctx).WithPrefix("server"),
		ctx:     ctx,
	}

	srv.Cron = cron.NewScheduler(ctx)
	if err := srv.Cron.AddJobs(ctx); err != nil {
		return nil, fmt.Errorf("add cron jobs: %w", err)
	}

	srv.HTTPServer, err = web.NewHTTPServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create http server: %w", err)
	}

	srv.StatsServer, err = stats.NewStatsServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create stats server: %w", err)
	}

	return srv, nil
}

// Start starts the HTTP and stats servers and the job scheduler.
func (s *Server) Start() error {
	errg, _ := errgroup.WithContext(s.ctx)

	errg.Go(func() error {
		s.logger.Print("Starting HTTP server", "addr", s.Config.HTTP.ListenAddr)
		if err := s.HTTPServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.Config.Stats.ListenAddr != "" {
		errg.Go(func() error {
			s.logger.Print("Starting Stats server", "addr", s.Config.Stats.ListenAddr)
			if err := s.StatsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	errg.Go(func() error {
		s.Cron.Start()
		return nil
	})
	return errg.Wait()
}

// Shutdown lets the server gracefully shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return s.HTTPServer.Shutdown(ctx)
	})
	errg.Go(func() error {
		return s.StatsServer.Shutdown(ctx)
	})
	errg.Go(func() error {
		s.Cron.Shutdown()
		return nil
	})
	return errg.Wait()
}

// Close closes the servers immediately.
func (s *Server) Close() error {
	var errg errgroup.Group
	errg.Go(s.HTTPServer.Close)
	errg.Go(s.StatsServer.Close)
	errg.Go(func() error {
		s.Cron.Shutdown()
		return nil
	})
	return errg.Wait()
}
