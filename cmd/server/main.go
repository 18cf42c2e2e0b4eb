package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/shiftstaff/api"
	dbfs "github.com/garnizeh/shiftstaff/db"
	"github.com/garnizeh/shiftstaff/internal/config"
	"github.com/garnizeh/shiftstaff/internal/db"
	"github.com/garnizeh/shiftstaff/internal/repository/sqlite"
	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/internal/tasks"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	level, _ := cfg.Level()
	loc, _ := cfg.Location()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting shiftstaff", "version", version, "build_time", buildTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database connection
	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open db", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
			logger.Error("failed to migrate db", "err", err)
			os.Exit(1)
		}
	}

	repo := sqlite.New(conn, logger)

	pool := tasks.NewWorkerPool(repo, map[string]tasks.Handler{
		tasks.TypeNotify: tasks.NotifyHandler(repo),
	}, logger, cfg.Tasks.Workers)
	pool.Start(ctx)

	svc := staffing.New(repo, staffing.Options{
		Logger:      logger,
		Notifier:    tasks.NewNotifier(repo, cfg.Tasks.MaxAttempts),
		Location:    loc,
		StartGuard:  cfg.Staffing.StartGuard,
		SwimlaneGap: cfg.Staffing.SwimlaneGap,
	})

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Service:       svc,
		Notifications: repo,
		DB:            conn.GetConn(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.APITimeout,
		WriteTimeout:      cfg.APITimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-errCh:
		logger.Error("server failed", "err", err)
	}

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	pool.Stop()

	logger.Info("server exited")
}
