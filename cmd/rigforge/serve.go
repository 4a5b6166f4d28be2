package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/rigforge/internal/admin"
	"github.com/HerbHall/rigforge/internal/auth"
	"github.com/HerbHall/rigforge/internal/campaign"
	"github.com/HerbHall/rigforge/internal/catalog"
	"github.com/HerbHall/rigforge/internal/event"
	internalplugin "github.com/HerbHall/rigforge/internal/plugin"
	"github.com/HerbHall/rigforge/internal/server"
	"github.com/HerbHall/rigforge/internal/settings"
	"github.com/HerbHall/rigforge/internal/store"
	"github.com/HerbHall/rigforge/internal/version"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Start the RigForge API server with every enabled module.

Modules can be switched off with plugins.<name>.enabled: false in the
config file. The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("RigForge starting", zap.String("version", version.Short()))

	db, err := store.New(cfg.GetString("database.path"))
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := newApp(ctx, db)
	if err != nil {
		return err
	}
	defer app.registry.StopAll()

	schema, err := db.Versions(ctx)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("path", db.Path()), zap.Any("schema", schema))

	addr := net.JoinHostPort(cfg.GetString("server.host"), cfg.GetString("server.port"))
	srv := server.New(addr, app.registry, logger, app.serverOptions()...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("RigForge stopped")
	return nil
}

// app holds the wired module graph shared by the server.
type app struct {
	registry *internalplugin.Registry
	metrics  *prometheus.Registry
	auth     *auth.Module
}

// newApp registers, initializes and starts every module against db.
func newApp(ctx context.Context, db *store.SQLiteStore) (*app, error) {
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := event.NewBus(logger.Named("event"))
	registry := internalplugin.NewRegistry(logger.Named("plugin"))
	authModule := auth.NewModule()

	for _, p := range []plugin.Plugin{
		authModule,
		catalog.New(),
		admin.New(),
		campaign.New(),
		settings.New(),
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	deps := func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg,
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Metrics: metrics,
		}
	}
	if err := registry.InitAll(ctx, cfg, deps); err != nil {
		return nil, err
	}
	if err := registry.StartAll(ctx); err != nil {
		registry.StopAll()
		return nil, err
	}
	return &app{registry: registry, metrics: metrics, auth: authModule}, nil
}

func (a *app) serverOptions() []server.Option {
	opts := []server.Option{
		server.WithMetrics(a.metrics),
		server.WithRateLimit(cfg.GetFloat64("server.rate_limit.rps"), cfg.GetInt("server.rate_limit.burst")),
	}
	// Without an authenticator every role-guarded route answers 401.
	if tokens := a.auth.Tokens(); tokens != nil {
		opts = append(opts, server.WithAuthenticator(tokens))
	} else {
		logger.Warn("auth module disabled, staff and admin routes are unreachable")
	}
	return opts
}
