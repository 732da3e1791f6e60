package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/config"
	"github.com/ersinak/upload-dispatcher/internal/infra/sqlite"
	"github.com/ersinak/upload-dispatcher/internal/infra/sqlite/migrations"
	"github.com/ersinak/upload-dispatcher/internal/observability"
	"github.com/ersinak/upload-dispatcher/internal/platform"
	"github.com/ersinak/upload-dispatcher/internal/repository"
	"github.com/ersinak/upload-dispatcher/internal/service"
	"github.com/ersinak/upload-dispatcher/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is fine; credentials usually come from the real
	// environment in production.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := sqlite.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("sqlite initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("sqlite underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	videos := repository.NewGormVideoRepo(db)
	uploads := repository.NewGormUploadRepo(db)
	store := storage.NewStore(cfg.UploadDir)
	sessions := platform.NewSessionStore(cfg.SessionDir)
	registry := platform.NewRegistry(sessions, logger)
	metrics := observability.NewMetrics()

	dispatcher, err := service.NewDispatcher(
		videos,
		uploads,
		registry,
		store,
		cfg.PollInterval(),
		cfg.Policy(),
		cfg.Window(),
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Start(ctx)
	})

	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("metrics server started", zap.Int("port", cfg.MetricsPort))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	logger.Info("upload-dispatcher started",
		zap.String("database", cfg.DatabasePath),
		zap.String("uploadDir", cfg.UploadDir),
	)

	if err := g.Wait(); err != nil {
		logger.Fatal("upload-dispatcher terminated", zap.Error(err))
	}
	logger.Info("upload-dispatcher stopped")
}
