// Command server runs the guessing-game HTTP API.
//
// Startup order: environment and config, logging, database (with optional
// dev seeding), cache backend, OpenTelemetry, then the Gin engine with all
// routes. Shutdown is graceful: SIGINT/SIGTERM drains in-flight requests
// before the process exits.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/titandle/titandle-backend/internal/cache"
	"github.com/titandle/titandle-backend/internal/config"
	httpapi "github.com/titandle/titandle-backend/internal/http"
	"github.com/titandle/titandle-backend/internal/observability"
	"github.com/titandle/titandle-backend/internal/repo"
	"github.com/titandle/titandle-backend/internal/sysutil"

	_ "github.com/titandle/titandle-backend/docs"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging: zerolog with UNIX-ms timestamps; pretty console in dev.
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting titandle-backend")

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.SeedDB {
		n, err := repo.Seed(context.Background(), db)
		if err != nil {
			log.Fatal().Err(err).Msg("seed database")
		}
		if n > 0 {
			log.Info().Int("characters", n).Msg("seeded dev fixtures")
		}
	}

	// Cache backend: Redis when configured, otherwise in-process.
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		redisStore, err := cache.NewRedis(context.Background(), cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("connect redis")
		}
		store = redisStore
	} else {
		store = cache.NewMemory()
	}

	// Observability (no-op unless enabled)
	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	// HTTP engine
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, store, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("listening")

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown http server")
	}
	if err := shutdownOTel(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown opentelemetry")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
