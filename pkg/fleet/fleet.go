// Package fleet implements device.Controller on top of the SQLite device
// registry and a packet transport.
package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/db"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/device/schema"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/protocol/packets"
	"github.com/urmzd/bikeiot/pkg/protocol/validator"
	"github.com/urmzd/bikeiot/pkg/transport"
)

// EventPublisher receives fleet events. *device.Broadcaster implements it.
type EventPublisher interface {
	Publish(evt device.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(device.Event) {}

// Options tunes a Fleet. Zero values select defaults.
type Options struct {
	ProfileID int64
	// Converter encodes outgoing packets. Defaults to text.
	Converter *codec.Converter
	Validator *validator.Validator
	Builder   *packets.Builder
	Schemas   *schema.Validator
	Events    EventPublisher
	// CommandTTL is used when SendCommand gets no ttl.
	CommandTTL time.Duration
	// TelemetryHistory is the number of snapshots kept per device.
	TelemetryHistory int
	// AutoRegister adds unknown devices on their first accepted packet.
	AutoRegister bool
}

// Fleet implements device.Controller.
type Fleet struct {
	db        *db.DB
	pub       transport.Publisher
	profileID int64
	conv      *codec.Converter
	val       *validator.Validator
	builder   *packets.Builder
	schemas   *schema.Validator
	events    EventPublisher
	ttl       time.Duration
	history   int
	autoReg   bool
}

var _ device.Controller = (*Fleet)(nil)

// New creates a Fleet. pub may be nil, in which case commands fail with
// device.ErrNotConnected.
func New(database *db.DB, pub transport.Publisher, opts Options) *Fleet {
	f := &Fleet{
		db:        database,
		pub:       pub,
		profileID: opts.ProfileID,
		conv:      opts.Converter,
		val:       opts.Validator,
		builder:   opts.Builder,
		schemas:   opts.Schemas,
		events:    opts.Events,
		ttl:       opts.CommandTTL,
		history:   opts.TelemetryHistory,
		autoReg:   opts.AutoRegister,
	}
	if f.conv == nil {
		f.conv = codec.NewConverter(codec.ModeText)
	}
	if f.val == nil {
		f.val = validator.Default
	}
	if f.builder == nil {
		f.builder = packets.NewBuilder(nil)
	}
	if f.schemas == nil {
		f.schemas = schema.NewValidator()
	}
	if f.events == nil {
		f.events = nopPublisher{}
	}
	if f.ttl <= 0 {
		f.ttl = 5 * time.Minute
	}
	if f.history <= 0 {
		f.history = 1000
	}
	return f
}

func (f *Fleet) now() time.Time {
	if f.builder.Clock != nil {
		return f.builder.Clock()
	}
	return time.Now()
}

func (f *Fleet) publishEvent(evt device.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = f.now()
	}
	f.events.Publish(evt)
}

func (f *Fleet) ListDevices(ctx context.Context) ([]device.Device, error) {
	rows, err := f.db.Devices().List(ctx, f.profileID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	devices := make([]device.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, toDevice(row))
	}
	return devices, nil
}

func (f *Fleet) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	row, err := f.db.Devices().Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	d := toDevice(row)
	return &d, nil
}

func (f *Fleet) RegisterDevice(ctx context.Context, d device.Device) (*device.Device, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%w: device id is required", device.ErrValidation)
	}
	paramsSchema := d.ParamsSchema
	if len(paramsSchema) == 0 {
		paramsSchema = schema.BikeParams
	}
	if !json.Valid(paramsSchema) {
		return nil, fmt.Errorf("%w: params_schema is not JSON", device.ErrValidation)
	}
	if err := f.schemas.Compile(paramsSchema); err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	row := &db.Device{
		ID:           d.ID,
		ProfileID:    f.profileID,
		Name:         d.Name,
		Model:        d.Model,
		ParamsSchema: paramsSchema,
	}
	if err := f.db.Devices().Create(ctx, row); err != nil {
		return nil, mapStoreError(err)
	}

	log.Info().Str("device_id", d.ID).Str("name", row.Name).Msg("Device registered")
	f.publishEvent(device.Event{Type: device.EventDeviceRegistered, DeviceID: d.ID})
	return f.GetDevice(ctx, d.ID)
}

func (f *Fleet) RenameDevice(ctx context.Context, id, newName string) error {
	row, err := f.db.Devices().Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	row.Name = newName
	return mapStoreError(f.db.Devices().Update(ctx, row))
}

func (f *Fleet) RemoveDevice(ctx context.Context, id string) error {
	if err := f.db.Devices().Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	log.Info().Str("device_id", id).Msg("Device removed")
	f.publishEvent(device.Event{Type: device.EventDeviceRemoved, DeviceID: id})
	return nil
}

func (f *Fleet) LatestTelemetry(ctx context.Context, id string) (*device.Telemetry, error) {
	if _, err := f.db.Devices().Get(ctx, id); err != nil {
		return nil, mapStoreError(err)
	}
	rec, err := f.db.Telemetry().Latest(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	t := toTelemetry(rec)
	return &t, nil
}

func (f *Fleet) TelemetryHistory(ctx context.Context, id string, limit int) ([]device.Telemetry, error) {
	if _, err := f.db.Devices().Get(ctx, id); err != nil {
		return nil, mapStoreError(err)
	}
	recs, err := f.db.Telemetry().List(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list telemetry: %w", err)
	}
	history := make([]device.Telemetry, 0, len(recs))
	for _, rec := range recs {
		history = append(history, toTelemetry(rec))
	}
	return history, nil
}

func (f *Fleet) GetCommand(ctx context.Context, chainID string) (*device.CommandRecord, error) {
	row, err := f.db.Commands().Get(ctx, chainID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	rec := toCommandRecord(row)
	return &rec, nil
}

func (f *Fleet) ListCommands(ctx context.Context, id string, limit int) ([]device.CommandRecord, error) {
	if _, err := f.db.Devices().Get(ctx, id); err != nil {
		return nil, mapStoreError(err)
	}
	rows, err := f.db.Commands().ListByDevice(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	records := make([]device.CommandRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toCommandRecord(row))
	}
	return records, nil
}

func (f *Fleet) IsConnected() bool {
	return f.pub != nil && f.pub.IsConnected()
}

func (f *Fleet) Close() {
	if f.pub != nil {
		f.pub.Close()
	}
}

// ExpireCommands marks overdue pending commands as expired.
func (f *Fleet) ExpireCommands(ctx context.Context) (int64, error) {
	n, err := f.db.Commands().ExpirePending(ctx, f.now())
	if err != nil {
		return 0, fmt.Errorf("expire commands: %w", err)
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Expired pending commands")
	}
	return n, nil
}

// RunExpiry calls ExpireCommands every interval until ctx ends.
func (f *Fleet) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := f.ExpireCommands(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Command expiry failed")
			}
		}
	}
}

func toDevice(row *db.Device) device.Device {
	return device.Device{
		ID:           row.ID,
		Name:         row.Name,
		Model:        row.Model,
		ParamsSchema: row.ParamsSchema,
		Params:       row.Params,
		LastSeen:     row.LastSeen,
	}
}

func toTelemetry(rec *db.TelemetryRecord) device.Telemetry {
	return device.Telemetry{
		DeviceID:   rec.DeviceID,
		Timestamp:  rec.Timestamp,
		ReceivedAt: rec.ReceivedAt,
		Data:       rec.Data,
	}
}

func toCommandRecord(row *db.Command) device.CommandRecord {
	return device.CommandRecord{
		ChainID:         row.ChainID,
		DeviceID:        row.DeviceID,
		Kind:            row.Kind,
		Status:          string(row.Status),
		Packet:          json.RawMessage(row.Packet),
		SentAt:          row.SentAt,
		ValidUntil:      row.ValidUntil,
		Result:          row.Result,
		ErrorStatus:     row.ErrorStatus,
		ErrorMessage:    row.ErrorMessage,
		DeliveryTimeS:   row.DeliveryTimeS,
		ExecutionTimeMs: row.ExecutionTimeMs,
		CompletedAt:     row.CompletedAt,
	}
}

// mapStoreError translates store sentinels to device errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrDeviceNotFound):
		return device.ErrNotFound
	case errors.Is(err, db.ErrDeviceExists):
		return device.ErrAlreadyExists
	case errors.Is(err, db.ErrCommandNotFound):
		return device.ErrCommandNotFound
	case errors.Is(err, db.ErrNoTelemetry):
		return device.ErrNoTelemetry
	default:
		return err
	}
}
