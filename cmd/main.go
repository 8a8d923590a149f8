package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movie-votr-api/internal/auth"
	"movie-votr-api/internal/config"
	"movie-votr-api/internal/database"
	"movie-votr-api/internal/middleware"
	"movie-votr-api/internal/repository"
	"movie-votr-api/internal/router"
	"movie-votr-api/internal/service"
	"movie-votr-api/internal/tmdb"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache and rate limiting", "error", err)
	} else {
		defer rdb.Close()
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TokenExpiry)
	if err != nil {
		slog.Error("failed to configure tokens", "error", err)
		os.Exit(1)
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)
	if cfg.TMDB.APIKey == "" {
		slog.Warn("TMDB_API_KEY is not set, TMDB search will fail")
	}

	// Initialize layers
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	movies := repository.NewMovieRepository(db)
	polls := repository.NewPollRepository(db)
	watched := repository.NewWatchedRepository(db)

	svc := router.Services{
		Auth:    service.NewAuthService(users, tokens),
		Groups:  service.NewGroupService(groups),
		Movies:  service.NewMovieService(movies, tmdbClient, rdb, cfg.TMDB.SearchCacheTTL),
		Polls:   service.NewPollService(polls, groups, movies, users),
		Watched: service.NewWatchedService(watched, groups, polls, movies),
		Admin:   service.NewAdminService(users, groups),
	}

	// Bootstrap superuser
	if cfg.Admin.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := svc.Auth.EnsureSuperuser(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			slog.Error("failed to ensure superuser", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("ADMIN_USERNAME, ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping superuser bootstrap")
	}

	// Swagger docs
	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
		swaggerYAML = nil
	}

	app := router.New(svc, router.Options{
		APIPrefix:   cfg.APIPrefix,
		RateLimiter: middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds),
		SwaggerYAML: swaggerYAML,
		AccessLog:   true,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down movie votr api...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting movie votr api", "addr", addr, "prefix", cfg.APIPrefix)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
