// Package packets constructs outgoing packets with consistent envelope
// fields.
package packets

import (
	"time"

	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/chainid"
)

// Builder stamps packets with its version and the current time.
type Builder struct {
	Version protocol.Version
	Clock   func() time.Time
	IDs     chainid.Generator
}

// NewBuilder creates a Builder for version 1.0 using the wall clock.
func NewBuilder(ids chainid.Generator) *Builder {
	if ids == nil {
		ids = chainid.UUID{}
	}
	return &Builder{
		Version: protocol.DefaultVersion,
		Clock:   time.Now,
		IDs:     ids,
	}
}

// Timestamp converts t to Unix seconds.
func Timestamp(t time.Time) uint64 {
	return uint64(t.Unix())
}

// TimestampMs converts t to Unix milliseconds.
func TimestampMs(t time.Time) uint64 {
	return uint64(t.UnixMilli())
}

func (b *Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock()
}

// Packet returns an envelope without payload. A positive validFor sets
// ValidUntil to the timestamp plus validFor, rounded down to seconds.
func (b *Builder) Packet(validFor time.Duration) *protocol.Packet {
	ts := Timestamp(b.now())
	p := &protocol.Packet{
		Version:   uint32(b.Version),
		Timestamp: ts,
	}
	if validFor > 0 {
		until := ts + uint64(validFor/time.Second)
		p.ValidUntil = &until
	}
	return p
}

// Command builds a command packet with the given chain id.
func (b *Builder) Command(chainID string, validFor time.Duration, payload protocol.CommandPayload) *protocol.Packet {
	p := b.Packet(validFor)
	p.Payload = &protocol.Command{ChainID: chainID, Payload: payload}
	return p
}

// NewCommand builds a command packet with a fresh chain id.
func (b *Builder) NewCommand(validFor time.Duration, payload protocol.CommandPayload) *protocol.Packet {
	return b.Command(b.IDs.NewChainID(), validFor, payload)
}

// CommandResultSuccess reports successful execution of chainID.
func (b *Builder) CommandResultSuccess(chainID string, prevChainID *string, deliveryS, executionMs int32) *protocol.Packet {
	p := b.Packet(0)
	p.Payload = &protocol.CommandResult{
		ChainID:         chainID,
		Result:          protocol.ResultSuccess,
		PrevChainID:     prevChainID,
		DeliveryTimeS:   deliveryS,
		ExecutionTimeMs: executionMs,
	}
	return p
}

// CommandResultError reports a failed execution of chainID.
func (b *Builder) CommandResultError(chainID string, result protocol.ResultCode, status protocol.ErrorCode, message string, prevChainID *string, deliveryS, executionMs int32) *protocol.Packet {
	p := b.Packet(0)
	p.Payload = &protocol.CommandResult{
		ChainID: chainID,
		Result:  result,
		ErrorDescription: &protocol.ErrorDescription{
			Status:  protocol.Status(status),
			Message: protocol.String(message),
		},
		PrevChainID:     prevChainID,
		DeliveryTimeS:   deliveryS,
		ExecutionTimeMs: executionMs,
	}
	return p
}

// Telemetry builds a telemetry packet.
func (b *Builder) Telemetry(payload *protocol.TelemetryPayload) *protocol.Packet {
	p := b.Packet(0)
	p.Payload = &protocol.Telemetry{Payload: payload}
	return p
}

// Request builds a request packet with a fresh chain id.
func (b *Builder) Request() *protocol.Packet {
	p := b.Packet(0)
	p.Payload = &protocol.Request{ChainID: b.IDs.NewChainID()}
	return p
}
