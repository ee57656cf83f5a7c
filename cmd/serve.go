package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"parkwatch/internal/infrastructure/auth"
	"parkwatch/internal/infrastructure/config"
	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"
	"parkwatch/internal/infrastructure/server"
	"parkwatch/internal/infrastructure/storage"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the relay hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(WithSignal(cmd.Context()), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.NewLogrusLogger(&cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	db, err := database.Open(ctx, cfg.Database, log, m)
	if err != nil {
		log.Errorf("failed to connect to database: %v", err)
		return err
	}

	uploader, err := storage.NewS3Uploader(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn("object storage not configured; vehicle uploads will answer 503")
	case err != nil:
		_ = db.Close()
		return err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; login will not issue tokens")
	}

	hubInstance := hub.New(log, m)

	// Start the hub first so the relay endpoints never see a stopped hub.
	if err := hubInstance.Start(context.Background()); err != nil {
		_ = db.Close()
		log.Errorf("failed to start hub: %v", err)
		return err
	}

	router := InitRouter(routerDeps{
		cfg:      cfg,
		log:      log,
		hub:      hubInstance,
		db:       db,
		tokens:   tokens,
		uploader: uploader,
		metrics:  m,
	})
	httpSrv := server.NewHTTPServer(router, cfg.Server, log)

	app := newApplication(log, httpSrv, hubInstance, db, cfg.Server)
	if err := app.Run(ctx); err != nil {
		log.Errorf("failed to run application: %v", err)
		return err
	}
	return nil
}

type Application struct {
	logger  logger.Logger
	httpSrv server.Server
	hub     *hub.Hub
	db      *database.DB
	cfg     config.ServerConfig
}

func newApplication(
	logger logger.Logger,
	httpSrv server.Server,
	hubInstance *hub.Hub,
	db *database.DB,
	cfg config.ServerConfig,
) *Application {
	return &Application{
		logger:  logger.WithField("app", "parkwatch"),
		httpSrv: httpSrv,
		hub:     hubInstance,
		db:      db,
		cfg:     cfg,
	}
}

// Run serves until ctx ends, then stops the hub, the HTTP server and the
// database pool in that order.
func (app *Application) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return app.httpSrv.Start(egCtx)
	})

	eg.Go(func() error {
		<-egCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownTimeout)
		defer cancel()

		if err := app.hub.Stop(shutdownCtx); err != nil {
			app.logger.Errorf("failed to stop hub: %v", err)
		}

		err := app.httpSrv.Stop(shutdownCtx)

		if cerr := app.db.Close(); cerr != nil {
			app.logger.Errorf("failed to close database: %v", cerr)
		}
		app.logger.Info("shutdown complete")
		return err
	})

	return eg.Wait()
}
