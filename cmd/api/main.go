package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"smartroute/internal/api"
	"smartroute/internal/buildinfo"
	"smartroute/internal/config"
	"smartroute/internal/logging"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("load config")
	}
	logging.Setup(cfg.LogLevel, cfg.Development())

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init server")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srvDeps.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		bi := buildinfo.Get()
		log.Info().Str("addr", srv.Addr).Str("version", bi.Version).Str("commit", bi.Commit).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
