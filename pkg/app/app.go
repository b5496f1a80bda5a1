// Package app wires the database, transport configuration, fleet and
// transports shared by the API and MCP binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/config"
	"github.com/urmzd/bikeiot/pkg/db"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/fleet"
	"github.com/urmzd/bikeiot/pkg/ingest"
	"github.com/urmzd/bikeiot/pkg/metrics"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/transport"
	"github.com/urmzd/bikeiot/pkg/transport/mqtt"
	"github.com/urmzd/bikeiot/pkg/transport/serial"
)

// Options selects the files an App is built from.
type Options struct {
	// DBPath is the SQLite file. Empty selects the default location.
	DBPath string
	// ConfigPath is the TOML transport config. Empty selects defaults.
	ConfigPath string
}

// App is a running backend.
type App struct {
	DB       *db.DB
	Config   config.Config
	Settings *db.Config
	Fleet    *fleet.Fleet
	Events   *device.Broadcaster
	Pipeline *ingest.Pipeline

	mux   *transport.Mux
	links []*serial.Link
	wg    sync.WaitGroup
}

// Open prepares the database and builds the fleet. Transports are not
// connected until Connect.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info().Str("path", database.Path()).Msg("Database opened")

	settings, err := prepare(ctx, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	metrics.Register()

	a := &App{
		DB:       database,
		Config:   cfg,
		Settings: settings,
		Events:   device.NewBroadcaster(),
		mux:      transport.NewMux(nil),
	}
	a.Fleet = fleet.New(database, a.mux, fleet.Options{
		ProfileID:        settings.ProfileID(),
		Converter:        codec.NewConverter(cfg.Protocol.Transport),
		Events:           a.Events,
		CommandTTL:       cfg.Protocol.CommandTTL,
		TelemetryHistory: cfg.Fleet.TelemetryHistory,
		AutoRegister:     cfg.Fleet.AutoRegister,
	})
	a.Pipeline = ingest.New(a.Fleet, ingest.WithEvents(a.Events))

	log.Info().
		Str("profile", settings.Profile.Name).
		Str("timezone", settings.Location().String()).
		Str("api_address", settings.APIAddress()).
		Str("transport", cfg.Protocol.Transport.String()).
		Dur("command_ttl", cfg.Protocol.CommandTTL).
		Msg("Configuration loaded")

	return a, nil
}

func prepare(ctx context.Context, database *db.DB) (*db.Config, error) {
	if err := database.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("check bootstrap status: %w", err)
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
	}

	settings, err := database.ActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return settings, nil
}

// Connect dials the configured transports. A transport that fails to
// come up is logged and skipped; commands to its devices then fail with
// device.ErrNotConnected.
func (a *App) Connect(ctx context.Context) {
	if a.Config.MQTT.Enabled() {
		client, err := mqtt.Dial(ctx, a.Config.MQTT, a.Pipeline.Handle)
		if err != nil {
			log.Warn().Err(err).Str("broker", a.Config.MQTT.BrokerURL).Msg("MQTT broker unavailable, commands will fail until restart")
		} else {
			a.mux.SetFallback(client)
		}
	}

	if a.Config.Serial.Enabled() {
		link, err := serial.Open(a.Config.Serial)
		if err != nil {
			log.Warn().Err(err).Str("port", a.Config.Serial.Port).Msg("Serial link unavailable")
		} else {
			a.AddLink(link)
		}
	}

	if !a.mux.IsConnected() {
		log.Warn().Msg("No device transport connected")
	}
}

// AddLink routes commands for the link's device through it. The link is
// read by Run.
func (a *App) AddLink(link *serial.Link) {
	a.mux.Route(link.DeviceID(), link)
	a.links = append(a.links, link)
}

// Run reads serial links and expires overdue commands until ctx ends.
func (a *App) Run(ctx context.Context) {
	for _, link := range a.links {
		a.wg.Add(1)
		go func(l *serial.Link) {
			defer a.wg.Done()
			if err := l.Run(ctx, a.Pipeline.Handle); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("device_id", l.DeviceID()).Msg("Serial link stopped")
			}
		}(link)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Fleet.RunExpiry(ctx, a.Config.Fleet.ExpiryInterval)
	}()
}

// Close stops the transports and closes the database. Run's context must
// be cancelled first.
func (a *App) Close() error {
	a.Fleet.Close()
	a.wg.Wait()
	a.Events.Close()
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
