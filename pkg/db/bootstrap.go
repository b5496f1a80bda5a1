package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

// Bootstrap creates the default profile and API server on first run. It
// does nothing when a profile already exists.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	return db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, timezone, is_active)
			VALUES (?, ?, 1)
		`, "default", detectTimezone())
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}

		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO api_servers (profile_id, host, port)
			VALUES (?, '0.0.0.0', 8080)
		`, profileID)
		if err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}
		return nil
	})
}

// NeedsBootstrap returns true if the database has no profile yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// detectTimezone returns an IANA zone name from $TZ, /etc/timezone or the
// /etc/localtime symlink, defaulting to UTC.
func detectTimezone() string {
	candidates := []func() string{
		func() string { return os.Getenv("TZ") },
		func() string {
			data, err := os.ReadFile("/etc/timezone")
			if err != nil {
				return ""
			}
			return string(data)
		},
		func() string {
			link, err := os.Readlink("/etc/localtime")
			if err != nil {
				return ""
			}
			if _, zone, found := strings.Cut(link, "zoneinfo/"); found {
				return zone
			}
			return ""
		},
	}

	for _, candidate := range candidates {
		zone := strings.TrimSpace(candidate())
		if zone == "" {
			continue
		}
		if _, err := time.LoadLocation(zone); err == nil {
			return zone
		}
	}
	return "UTC"
}
