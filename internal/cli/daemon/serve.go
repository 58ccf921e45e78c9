// Package daemon holds the molpaneld commands.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/molpanel/internal/api/handlers"
	"github.com/cloo-solutions/molpanel/internal/cli"
	"github.com/cloo-solutions/molpanel/internal/config"
	"github.com/cloo-solutions/molpanel/internal/database"
	"github.com/cloo-solutions/molpanel/internal/jobs"
	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/cloo-solutions/molpanel/internal/metrics"
	"github.com/cloo-solutions/molpanel/internal/repository"
	"github.com/cloo-solutions/molpanel/internal/server"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/cloo-solutions/molpanel/internal/telemetry"
	"github.com/spf13/cobra"
)

const pruneInterval = time.Hour

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the panel server",
		Long:  "Serve the structure editor page and the panel API on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides MOLPANEL_PORT)")
	cmd.Flags().String("strategy", "", "Result strategy: static or networked")
	cmd.Flags().String("fetch-mode", "", "Networked fetch mode: joint or independent")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	strategy, _ := cmd.Flags().GetString("strategy")
	fetchMode, _ := cmd.Flags().GetString("fetch-mode")
	if err := cli.ApplyStrategyFlags(cfg, strategy, fetchMode); err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: telemetry.SampleRateFor(cfg.Environment),
		Debug:            cfg.Debug,
	})
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", logging.Err(err))
	} else {
		defer shutdownTelemetry()
	}

	m := metrics.New(true)

	fetcher, err := cli.NewFetcher(cfg, m)
	if err != nil {
		return fmt.Errorf("failed to build result strategy: %w", err)
	}

	var (
		logRepo *repository.RetrievalLogRepository
		history handlers.RetrievalHistory
		workers []*jobs.Worker
	)

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")

		if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
			if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		logRepo = repository.NewRetrievalLogRepository(pool)
		history = logRepo

		if cfg.LogRetention > 0 {
			pruner := jobs.NewLogPruner(logRepo, cfg.LogRetention, logger)
			workers = append(workers, jobs.NewWorker("log-pruner", pruner, pruneInterval, logger))
		}
	} else {
		logger.Info("no database configured, retrieval log disabled")
	}

	var panels *service.PanelService
	if logRepo != nil {
		panels = service.NewPanelService(fetcher, logRepo, m, logger, cfg.SessionTTL)
	} else {
		panels = service.NewPanelService(fetcher, nil, m, logger, cfg.SessionTTL)
	}
	workers = append(workers, jobs.NewWorker("janitor", panels, cfg.JanitorInterval, logger))

	for _, w := range workers {
		go w.Start(ctx)
	}

	editorAssets, err := handlers.EditorAssetsHandler(cfg.EditorAssetsDir)
	if err != nil {
		// The page still loads; the editor reports the failure on the panel.
		logger.Warn("editor build not served, point MOLPANEL_EDITOR_ASSETS_DIR at an unpacked Ketcher standalone build",
			logging.String("dir", cfg.EditorAssetsDir),
			logging.Err(err))
	}

	router := server.NewRouter(server.RouterConfig{
		PageHandler: handlers.NewPageHandler(panels, handlers.PageConfig{
			EditorScriptURL: cfg.EditorScriptURL,
			EditorAppURL:    cfg.EditorAppURL,
		}, logger),
		PanelHandler: handlers.NewPanelHandler(panels, history),
		Metrics:      m.Handler(),
		EditorAssets: editorAssets,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			logging.String("port", cfg.Port),
			logging.String("strategy", fetcher.Name()),
			logging.String("fetch_mode", cfg.FetchMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
