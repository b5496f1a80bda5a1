// Package ingest turns transport messages into validated packets and
// routes them by payload kind.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/metrics"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/protocol/validator"
	"github.com/urmzd/bikeiot/pkg/protocol/variant"
	"github.com/urmzd/bikeiot/pkg/transport"
)

// Sink persists what accepted packets report. *fleet.Fleet implements it.
type Sink interface {
	Seen(ctx context.Context, deviceID string, at time.Time) error
	CompleteCommand(ctx context.Context, deviceID string, at time.Time, res *protocol.CommandResult) error
	StoreTelemetry(ctx context.Context, deviceID string, at time.Time, t *protocol.Telemetry) error
}

// EventPublisher receives one event per processed message.
type EventPublisher interface {
	Publish(evt device.Event)
}

// Outcome describes how a message was handled.
type Outcome struct {
	Packet  *protocol.Packet
	Verdict validator.Verdict
	// Err is a conversion or sink failure.
	Err error
}

// route handles one accepted packet of a known kind.
type route func(ctx context.Context, deviceID string, at time.Time) error

// Pipeline decodes, validates and routes inbound messages.
type Pipeline struct {
	conv   *codec.Converter
	detect bool
	val    *validator.Validator
	sink   Sink
	events EventPublisher
	routes variant.Set[*protocol.Packet, route]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConverter fixes the inbound wire form. Without it the form is
// detected per message.
func WithConverter(c *codec.Converter) Option {
	return func(p *Pipeline) {
		p.conv = c
		p.detect = false
	}
}

func WithValidator(v *validator.Validator) Option {
	return func(p *Pipeline) { p.val = v }
}

func WithEvents(e EventPublisher) Option {
	return func(p *Pipeline) { p.events = e }
}

// New creates a Pipeline delivering to sink.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		detect: true,
		val:    validator.Default,
		sink:   sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.routes = protocol.PayloadSet("ingest", protocol.PayloadHandlers[route]{
		Command: func(c *protocol.Command) route {
			return logOnly("Device sent a command", c.ChainID)
		},
		CommandResult: func(r *protocol.CommandResult) route {
			return func(ctx context.Context, deviceID string, at time.Time) error {
				return p.sink.CompleteCommand(ctx, deviceID, at, r)
			}
		},
		Request: func(r *protocol.Request) route {
			return logOnly("Device request", r.ChainID)
		},
		Response: func(r *protocol.Response) route {
			return logOnly("Device response", r.ChainID)
		},
		Telemetry: func(t *protocol.Telemetry) route {
			return func(ctx context.Context, deviceID string, at time.Time) error {
				return p.sink.StoreTelemetry(ctx, deviceID, at, t)
			}
		},
		Notification: func(n *protocol.Notification) route {
			return logOnly("Device notification", n.Message)
		},
	})
	return p
}

func logOnly(msg, ref string) route {
	return func(_ context.Context, deviceID string, _ time.Time) error {
		log.Info().Str("device_id", deviceID).Str("ref", ref).Msg(msg)
		return nil
	}
}

// Handle implements transport.Handler.
func (p *Pipeline) Handle(ctx context.Context, msg transport.Message) {
	_ = p.Process(ctx, msg)
}

// Process runs one message through decoding, validation and routing.
func (p *Pipeline) Process(ctx context.Context, msg transport.Message) Outcome {
	metrics.RecordPacket(msg.Transport)
	logger := log.With().Str("device_id", msg.DeviceID).Str("transport", msg.Transport).Logger()

	conv := p.conv
	if p.detect || conv == nil {
		conv = codec.NewConverter(codec.DetectMode(msg.Payload))
	}

	pkt, err := conv.Deserialize(msg.Payload)
	if err != nil {
		metrics.RecordConversionFailure(msg.Transport)
		logger.Warn().Err(err).Int("bytes", len(msg.Payload)).Msg("Dropping undecodable packet")
		p.publish(device.Event{Type: device.EventPacketUndecodable, DeviceID: msg.DeviceID}, msg)
		return Outcome{Err: err}
	}

	verdict := p.val.Check(pkt)
	metrics.RecordVerdict(verdict.Kind.String(), verdict.Valid, string(verdict.Rule))
	if !verdict.Valid {
		logger.Warn().
			Str("kind", verdict.Kind.String()).
			Str("rule", string(verdict.Rule)).
			Msg("Rejecting invalid packet")
		p.publish(device.Event{
			Type:     device.EventPacketRejected,
			DeviceID: msg.DeviceID,
			Kind:     verdict.Kind.String(),
			Rule:     string(verdict.Rule),
		}, msg)
		return Outcome{Packet: pkt, Verdict: verdict}
	}

	at := time.Unix(int64(pkt.Timestamp), 0)
	out := Outcome{Packet: pkt, Verdict: verdict}

	if err := p.sink.Seen(ctx, msg.DeviceID, at); err != nil {
		logger.Warn().Err(err).Msg("Packet from unregistered device")
		out.Err = err
		return out
	}

	handle, err := p.routes.Dispatch(pkt)
	if err != nil {
		// Validation already required exactly one kind.
		out.Err = fmt.Errorf("route packet: %w", err)
		logger.Error().Err(out.Err).Msg("Failed to route packet")
		return out
	}
	if err := handle(ctx, msg.DeviceID, at); err != nil {
		out.Err = err
		logger.Error().Err(err).Str("kind", verdict.Kind.String()).Msg("Failed to handle packet")
	}

	p.publish(device.Event{
		Type:     device.EventPacketAccepted,
		DeviceID: msg.DeviceID,
		Kind:     verdict.Kind.String(),
		ChainID:  chainID(pkt),
	}, msg)
	return out
}

func (p *Pipeline) publish(evt device.Event, msg transport.Message) {
	if p.events == nil {
		return
	}
	evt.Timestamp = msg.ReceivedAt
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	p.events.Publish(evt)
}

func chainID(p *protocol.Packet) string {
	switch v := p.Payload.(type) {
	case *protocol.Command:
		return v.ChainID
	case *protocol.CommandResult:
		return v.ChainID
	case *protocol.Request:
		return v.ChainID
	case *protocol.Response:
		return v.ChainID
	}
	return ""
}
