package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoActiveProfile = errors.New("no active profile found")

const defaultAPIAddress = "0.0.0.0:8080"

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return defaultAPIAddress
	}
	return c.APIServer.Address()
}

// ProfileID returns the active profile id, or 0 without a profile.
func (c *Config) ProfileID() int64 {
	if c.Profile == nil {
		return 0
	}
	return c.Profile.ID
}

// Location resolves the profile timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Profile == nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Profile.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ActiveConfig loads the complete configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}

	return &Config{Profile: profile, APIServer: apiServer}, nil
}
