package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNoTelemetry = errors.New("no telemetry recorded")

// TelemetryRecord is one accepted telemetry packet. Data holds the
// measurement object in the text wire form.
type TelemetryRecord struct {
	ID         int64
	DeviceID   string
	Timestamp  time.Time
	Data       json.RawMessage
	ReceivedAt time.Time
}

// TelemetryStore provides telemetry history.
type TelemetryStore interface {
	Append(ctx context.Context, r *TelemetryRecord) error
	// Latest returns the record with the newest device timestamp.
	Latest(ctx context.Context, deviceID string) (*TelemetryRecord, error)
	List(ctx context.Context, deviceID string, limit int) ([]*TelemetryRecord, error)
	// Prune keeps the newest keep records of deviceID.
	Prune(ctx context.Context, deviceID string, keep int) (int64, error)
}

// Telemetry returns a TelemetryStore for this database.
func (db *DB) Telemetry() TelemetryStore {
	return &telemetryStore{db: db}
}

type telemetryStore struct {
	db *DB
}

const telemetryColumns = `id, device_id, timestamp, data, received_at`

func scanTelemetry(row rowScanner) (*TelemetryRecord, error) {
	r := &TelemetryRecord{}
	var ts, data, receivedAt string
	err := row.Scan(&r.ID, &r.DeviceID, &ts, &data, &receivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTelemetry
	}
	if err != nil {
		return nil, err
	}
	r.Timestamp = parseTime(ts)
	r.Data = json.RawMessage(data)
	r.ReceivedAt = parseTime(receivedAt)
	return r, nil
}

func (s *telemetryStore) Append(ctx context.Context, r *TelemetryRecord) error {
	if !json.Valid(r.Data) {
		return fmt.Errorf("failed to store telemetry for %s: data is not JSON", r.DeviceID)
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO telemetry (device_id, timestamp, data, received_at)
		VALUES (?, ?, ?, ?)
	`, r.DeviceID, formatTime(r.Timestamp), string(r.Data), formatTime(r.ReceivedAt))
	if err != nil {
		return fmt.Errorf("failed to store telemetry for %s: %w", r.DeviceID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (s *telemetryStore) Latest(ctx context.Context, deviceID string) (*TelemetryRecord, error) {
	return scanTelemetry(s.db.QueryRowContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE device_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, deviceID))
}

func (s *telemetryStore) List(ctx context.Context, deviceID string, limit int) ([]*TelemetryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+telemetryColumns+` FROM telemetry
		WHERE device_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []*TelemetryRecord{}
	for rows.Next() {
		r, err := scanTelemetry(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *telemetryStore) Prune(ctx context.Context, deviceID string, keep int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM telemetry
		WHERE device_id = ? AND id NOT IN (
			SELECT id FROM telemetry WHERE device_id = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)
	`, deviceID, deviceID, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
