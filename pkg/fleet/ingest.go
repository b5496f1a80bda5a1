package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/urmzd/bikeiot/pkg/db"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
)

// Seen records that a packet from deviceID was accepted. Unknown devices
// are registered when AutoRegister is set.
func (f *Fleet) Seen(ctx context.Context, deviceID string, at time.Time) error {
	if f.autoReg {
		if err := f.db.Devices().Ensure(ctx, f.profileID, deviceID); err != nil {
			return err
		}
	}
	return mapStoreError(f.db.Devices().Touch(ctx, deviceID, at))
}

// StoreTelemetry appends a telemetry snapshot and trims the history.
func (f *Fleet) StoreTelemetry(ctx context.Context, deviceID string, at time.Time, t *protocol.Telemetry) error {
	data, err := codec.MarshalTelemetryText(t.Payload)
	if err != nil {
		return fmt.Errorf("telemetry from %s: %w", deviceID, err)
	}

	rec := &db.TelemetryRecord{
		DeviceID:   deviceID,
		Timestamp:  at,
		Data:       data,
		ReceivedAt: time.Now(),
	}
	if err := f.db.Telemetry().Append(ctx, rec); err != nil {
		return mapStoreError(err)
	}
	if _, err := f.db.Telemetry().Prune(ctx, deviceID, f.history); err != nil {
		return fmt.Errorf("prune telemetry of %s: %w", deviceID, err)
	}
	return nil
}
