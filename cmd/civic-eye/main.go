package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/civic-eye/internal/api"
	"github.com/mr1hm/civic-eye/internal/config"
	"github.com/mr1hm/civic-eye/internal/events"
	"github.com/mr1hm/civic-eye/internal/logging"
	"github.com/mr1hm/civic-eye/internal/observability"
	"github.com/mr1hm/civic-eye/internal/photo"
	"github.com/mr1hm/civic-eye/internal/repository"
	"github.com/mr1hm/civic-eye/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "db", cfg.DB.Driver)

	db, err := openStore(cfg.DB)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	verifier := verification.New(
		photo.NewHTTPFetcher(cfg.Photos.FetchTimeout, cfg.Photos.MaxBytes),
		verification.NewHashAnalyzer(),
		cfg.Policy(),
		verification.WithTimeout(cfg.Verification.Timeout),
		verification.WithLogger(slog.Default()),
		verification.WithMetrics(metrics),
	)

	// Live map subscribers plus the optional Kafka topic
	broadcaster := events.NewBroadcaster()
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slog.Default())
		slog.Info("publishing issue events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	dispatcher := events.NewDispatcher(cfg.Worker.Count, cfg.Worker.BufferSize, broadcaster, publisher, slog.Default(), metrics)
	dispatcher.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", api.HeaderUserEmail, api.HeaderUserRole},
		ExposeHeaders: []string{"Content-Length"},
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(api.Deps{
		Issues:         db,
		Verifications:  db,
		Verifier:       verifier,
		Authorizer:     cfg,
		Dispatcher:     dispatcher,
		Broadcaster:    broadcaster,
		Metrics:        metrics,
		Logger:         slog.Default(),
		MaxUploadBytes: cfg.Photos.MaxBytes,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	broadcaster.Close() // ends open event streams
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := dispatcher.Stop(); err != nil {
		slog.Error("event dispatcher shutdown error", "error", err)
	}
	cancel()

	slog.Info("shutdown complete")
}

func openStore(cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := repository.NewPostgresDB(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite", "":
		db, err := repository.NewSQLiteDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
