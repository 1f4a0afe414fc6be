package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodsync/internal/config"
	"moodsync/internal/handlers"
	"moodsync/internal/repository"
	"moodsync/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Initialize repository
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open check-in store")
	}
	defer closeRepo()

	// Initialize services
	photoStore, err := newPhotoStore(ctx, cfg.Photos)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo store")
	}
	hub := services.NewHub()
	checkInService := services.NewCheckInService(repo, photoStore, hub)

	// Initialize handlers
	checkInHandler := handlers.NewCheckInHandler(checkInService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r := newRouter(checkInHandler, wsHandler, cfg.Server.MaxBodyBytes)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("photos", cfg.Photos.Storage).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openRepository connects the configured check-in store and migrates it
func openRepository(ctx context.Context, cfg *config.Config) (services.CheckInRepository, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("Using in-memory check-in store, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info().Msg("Database schema up to date")

	return repository.NewCheckInRepository(db), db.Close, nil
}

// newPhotoStore selects inline or S3 photo storage
func newPhotoStore(ctx context.Context, cfg config.PhotosConfig) (services.PhotoStore, error) {
	if cfg.Storage != "s3" {
		return services.InlinePhotoStore{}, nil
	}
	return services.NewS3PhotoStore(ctx, services.S3Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Endpoint:  cfg.Endpoint,
	})
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
