package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/api"
	"github.com/urmzd/bikeiot/pkg/app"

	_ "github.com/urmzd/bikeiot/docs"
)

// @title           bikeiot API
// @version         1.0
// @description     Fleet backend for connected bikes: device registry, commands, telemetry and packet tools

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/bikeiot/bikeiot.db)")
	configPath := flag.String("config", "", "Path to TOML transport config (default: built-in, no broker)")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, app.Options{DBPath: *dbPath, ConfigPath: *configPath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start backend")
	}
	defer func() {
		stop()
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down backend")
		}
	}()

	backend.Connect(ctx)
	backend.Run(ctx)

	router := api.NewRouter(backend.Fleet, backend.Events, nil)
	server := &http.Server{
		Addr:              backend.Settings.APIAddress(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Ends open event streams so Shutdown does not wait on them.
	server.RegisterOnShutdown(backend.Events.Close)

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down API server")
		}
	}()

	log.Info().Str("address", server.Addr).Msg("Starting API server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
	}
	stop()
	<-shutdown
}
