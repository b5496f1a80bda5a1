package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/app"
	bikemcp "github.com/urmzd/bikeiot/pkg/mcp"
)

func main() {
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/bikeiot/bikeiot.db)")
	configPath := flag.String("config", "", "Path to TOML transport config (default: built-in, no broker)")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	// stdout is the MCP transport
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

	mcpServer := bikemcp.NewServer(backend.Fleet, nil)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
