package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dasper/backend/internal/config"
	httpapi "github.com/dasper/backend/internal/http"
	"github.com/dasper/backend/internal/manager"
	"github.com/dasper/backend/internal/regional"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "dasper-backend").Logger()

	ctx := context.Background()

	var regions regional.Store
	if cfg.MongoURI != "" {
		store, err := regional.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect mongo")
		}
		defer store.Close(ctx)
		regions = store
	} else {
		regions = regional.NewStaticStore()
		logger.Info().Msg("no MONGO_URI, using built-in regional cost table")
	}

	models := manager.New(manager.Config{
		ModelPath:              cfg.ModelPath,
		SeverityModelURL:       cfg.SeverityModelURL,
		DepthModelURL:          cfg.DepthModelURL,
		SatelliteToken:         cfg.MapboxToken,
		IdleTimeout:            cfg.ModelIdleTimeout,
		MonitorInterval:        cfg.ModelMonitorInterval,
		MemoryThresholdPercent: cfg.MemoryThresholdPercent,
		Logger:                 logger,
	})

	router := httpapi.Router(cfg, models, regions, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	models.Shutdown()
	logger.Info().Msg("server stopped")
}
