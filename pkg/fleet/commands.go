package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/db"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/device/schema"
	"github.com/urmzd/bikeiot/pkg/metrics"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/transport"
)

// SendCommand checks payload against the device parameter schema, builds
// a command packet valid for ttl, journals it and publishes it.
func (f *Fleet) SendCommand(ctx context.Context, id string, payload protocol.CommandPayload, ttl time.Duration) (*device.CommandRecord, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: empty command", device.ErrValidation)
	}
	if !f.IsConnected() {
		return nil, device.ErrNotConnected
	}

	dev, err := f.db.Devices().Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := f.checkParams(dev, payload); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = f.ttl
	}
	pkt := f.builder.NewCommand(ttl, payload)
	if verdict := f.val.Check(pkt); !verdict.Valid {
		return nil, fmt.Errorf("%w: failed rule %s", device.ErrInvalidPacket, verdict.Rule)
	}

	wire, err := f.conv.Serialize(pkt)
	if err != nil {
		return nil, fmt.Errorf("serialize command: %w", err)
	}
	journal, err := codec.MarshalText(pkt)
	if err != nil {
		return nil, fmt.Errorf("serialize command: %w", err)
	}

	cmd := pkt.Payload.(*protocol.Command)
	kind := payload.CommandKind().String()
	row := &db.Command{
		ChainID:  cmd.ChainID,
		DeviceID: id,
		Kind:     kind,
		Packet:   string(journal),
		SentAt:   time.Unix(int64(pkt.Timestamp), 0),
	}
	if pkt.ValidUntil != nil {
		until := time.Unix(int64(*pkt.ValidUntil), 0)
		row.ValidUntil = &until
	}
	if err := f.db.Commands().Create(ctx, row); err != nil {
		return nil, err
	}

	if err := f.pub.Publish(ctx, id, wire); err != nil {
		metrics.RecordCommandSent(kind, false)
		f.abandon(ctx, cmd.ChainID, err)
		if errors.Is(err, transport.ErrNotConnected) || errors.Is(err, transport.ErrUnknownDevice) {
			return nil, device.ErrNotConnected
		}
		if errors.Is(err, transport.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", device.ErrTimeout, err)
		}
		return nil, fmt.Errorf("publish command: %w", err)
	}
	metrics.RecordCommandSent(kind, true)

	log.Info().
		Str("device_id", id).
		Str("chain_id", cmd.ChainID).
		Str("kind", kind).
		Str("mode", f.conv.Mode().String()).
		Msg("Command sent")
	f.publishEvent(device.Event{
		Type:     device.EventCommandSent,
		DeviceID: id,
		Kind:     protocol.KindCommand.String(),
		ChainID:  cmd.ChainID,
		Status:   device.CommandPending,
	})

	rec := toCommandRecord(row)
	return &rec, nil
}

func (f *Fleet) checkParams(dev *db.Device, payload protocol.CommandPayload) error {
	switch cp := payload.(type) {
	case *protocol.SetParams:
		if len(cp.Params) == 0 {
			return fmt.Errorf("%w: setParams needs at least one parameter", device.ErrValidation)
		}
		if err := f.schemas.ValidateParams(dev.ParamsSchema, cp.Params); err != nil {
			return fmt.Errorf("%w: %v", device.ErrValidation, err)
		}
	case *protocol.GetParams:
		if len(cp.Params) == 0 {
			return fmt.Errorf("%w: getParams needs at least one parameter", device.ErrValidation)
		}
		if err := schema.CheckParamNames(dev.ParamsSchema, cp.Params); err != nil {
			return fmt.Errorf("%w: %v", device.ErrValidation, err)
		}
	case *protocol.SetState:
		if cp.State == "" {
			return fmt.Errorf("%w: setState needs a state", device.ErrValidation)
		}
	}
	return nil
}

// abandon settles a journaled command whose publication failed.
func (f *Fleet) abandon(ctx context.Context, chainID string, cause error) {
	err := f.db.Commands().Complete(ctx, chainID, db.CommandOutcome{
		Status:       db.CommandFailed,
		ErrorMessage: "publish: " + cause.Error(),
		CompletedAt:  f.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("chain_id", chainID).Msg("Failed to settle unpublished command")
	}
}

// CompleteCommand settles the journal entry a command result refers to.
// Successful setParams commands and getParams values update the stored
// device parameters.
func (f *Fleet) CompleteCommand(ctx context.Context, deviceID string, at time.Time, res *protocol.CommandResult) error {
	row, err := f.db.Commands().Get(ctx, res.ChainID)
	if err != nil {
		return fmt.Errorf("command result %s: %w", res.ChainID, mapStoreError(err))
	}
	if row.DeviceID != deviceID {
		return fmt.Errorf("command result %s: sent to %s, reported by %s", res.ChainID, row.DeviceID, deviceID)
	}

	outcome := db.CommandOutcome{
		Status:          db.CommandFailed,
		Result:          res.Result.String(),
		DeliveryTimeS:   res.DeliveryTimeS,
		ExecutionTimeMs: res.ExecutionTimeMs,
		CompletedAt:     at,
	}
	if res.Result == protocol.ResultSuccess {
		outcome.Status = db.CommandSucceeded
	}
	if ed := res.ErrorDescription; ed != nil {
		if ed.Status != nil {
			outcome.ErrorStatus = ed.Status.String()
		}
		if ed.Message != nil {
			outcome.ErrorMessage = *ed.Message
		}
	}

	if err := f.db.Commands().Complete(ctx, res.ChainID, outcome); err != nil {
		return fmt.Errorf("command result %s: %w", res.ChainID, err)
	}
	metrics.RecordCommandResult(string(outcome.Status))

	if outcome.Status == db.CommandSucceeded {
		if err := f.db.Devices().MergeParams(ctx, deviceID, confirmedParams(row, res)); err != nil {
			log.Warn().Err(err).Str("device_id", deviceID).Msg("Failed to store confirmed params")
		}
	}

	log.Info().
		Str("device_id", deviceID).
		Str("chain_id", res.ChainID).
		Str("status", string(outcome.Status)).
		Str("error_status", outcome.ErrorStatus).
		Msg("Command completed")
	f.publishEvent(device.Event{
		Type:     device.EventCommandCompleted,
		DeviceID: deviceID,
		Kind:     protocol.KindCommandResult.String(),
		ChainID:  res.ChainID,
		Status:   string(outcome.Status),
	})
	return nil
}

// confirmedParams returns the parameter values a successful result
// establishes: reported values first, else the values the command set.
func confirmedParams(row *db.Command, res *protocol.CommandResult) map[string]string {
	if values, ok := res.Payload.(*protocol.ParamValues); ok && len(values.Params) > 0 {
		return values.Params
	}
	if row.Kind != protocol.CommandSetParams.String() {
		return nil
	}
	pkt, err := codec.UnmarshalText([]byte(row.Packet))
	if err != nil {
		log.Warn().Err(err).Str("chain_id", row.ChainID).Msg("Journaled command is unreadable")
		return nil
	}
	cmd, ok := pkt.Payload.(*protocol.Command)
	if !ok {
		return nil
	}
	if sp, ok := cmd.Payload.(*protocol.SetParams); ok {
		return sp.Params
	}
	return nil
}
