package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device already registered")
)

// Device is a registered fleet device.
type Device struct {
	ID           string
	ProfileID    int64
	Name         string
	Model        string
	ParamsSchema json.RawMessage
	Params       map[string]string
	LastSeen     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeviceStore provides the device registry.
type DeviceStore interface {
	Get(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context, profileID int64) ([]*Device, error)
	Create(ctx context.Context, d *Device) error
	// Ensure registers id under profileID with its id as name unless it
	// already exists.
	Ensure(ctx context.Context, profileID int64, id string) error
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) error
	// Touch records that a packet from id was accepted at t.
	Touch(ctx context.Context, id string, t time.Time) error
	// MergeParams overlays params onto the stored parameter values.
	MergeParams(ctx context.Context, id string, params map[string]string) error
}

// Devices returns a DeviceStore for this database.
func (db *DB) Devices() DeviceStore {
	return &deviceStore{db: db}
}

type deviceStore struct {
	db *DB
}

const deviceColumns = `id, profile_id, name, model, params_schema, params, last_seen, created_at, updated_at`

func scanDevice(row rowScanner) (*Device, error) {
	d := &Device{}
	var (
		schema, params       string
		lastSeen             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&d.ID, &d.ProfileID, &d.Name, &d.Model, &schema, &params, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	d.ParamsSchema = json.RawMessage(schema)
	if err := json.Unmarshal([]byte(params), &d.Params); err != nil {
		return nil, fmt.Errorf("device %s: corrupt params: %w", d.ID, err)
	}
	d.LastSeen = parseNullTime(lastSeen)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

func (s *deviceStore) Get(ctx context.Context, id string) (*Device, error) {
	return scanDevice(s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
}

func (s *deviceStore) List(ctx context.Context, profileID int64) ([]*Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE profile_id = ? ORDER BY name, id`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	devices := []*Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *deviceStore) Create(ctx context.Context, d *Device) error {
	if d.ID == "" {
		return fmt.Errorf("failed to create device: empty id")
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	schema := d.ParamsSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{}`)
	}
	params, err := encodeParams(d.Params)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, profile_id, name, model, params_schema, params)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, d.ID, d.ProfileID, d.Name, d.Model, string(schema), params)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return expectRow(result, nil, ErrDeviceExists)
}

func (s *deviceStore) Ensure(ctx context.Context, profileID int64, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, profile_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, profileID, id)
	if err != nil {
		return fmt.Errorf("failed to register device %s: %w", id, err)
	}
	return nil
}

func (s *deviceStore) Update(ctx context.Context, d *Device) error {
	schema := d.ParamsSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{}`)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE devices SET name = ?, model = ?, params_schema = ?, updated_at = datetime('now')
		WHERE id = ?
	`, d.Name, d.Model, string(schema), d.ID)
	return expectRow(result, err, ErrDeviceNotFound)
}

func (s *deviceStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	return expectRow(result, err, ErrDeviceNotFound)
}

func (s *deviceStore) Touch(ctx context.Context, id string, t time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE devices SET last_seen = ? WHERE id = ?`, formatTime(t), id)
	return expectRow(result, err, ErrDeviceNotFound)
}

func (s *deviceStore) MergeParams(ctx context.Context, id string, params map[string]string) error {
	if len(params) == 0 {
		return nil
	}
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT params FROM devices WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return err
		}

		current := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return fmt.Errorf("device %s: corrupt params: %w", id, err)
		}
		for k, v := range params {
			current[k] = v
		}

		encoded, err := encodeParams(current)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE devices SET params = ?, updated_at = datetime('now') WHERE id = ?`, encoded, id)
		return err
	})
}

func encodeParams(params map[string]string) (string, error) {
	if params == nil {
		return "{}", nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}
