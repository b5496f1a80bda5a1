package device

import (
	"context"
	"time"

	"github.com/urmzd/bikeiot/pkg/protocol"
)

// Controller manages the device fleet. The API and MCP surfaces work
// against this interface and never touch the transport directly.
type Controller interface {
	// ListDevices returns all registered devices
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single device by ID
	GetDevice(ctx context.Context, id string) (*Device, error)

	// RegisterDevice adds a device to the registry
	RegisterDevice(ctx context.Context, d Device) (*Device, error)

	// RenameDevice changes a device's friendly name
	RenameDevice(ctx context.Context, id, newName string) error

	// RemoveDevice deletes a device with its command and telemetry history
	RemoveDevice(ctx context.Context, id string) error

	// SendCommand builds, validates and publishes a command packet. The
	// packet expires ttl after it is sent.
	SendCommand(ctx context.Context, id string, payload protocol.CommandPayload, ttl time.Duration) (*CommandRecord, error)

	// GetCommand returns the journal entry of a command by chain id
	GetCommand(ctx context.Context, chainID string) (*CommandRecord, error)

	// ListCommands returns the newest commands of a device
	ListCommands(ctx context.Context, id string, limit int) ([]CommandRecord, error)

	// LatestTelemetry returns the newest telemetry snapshot of a device
	LatestTelemetry(ctx context.Context, id string) (*Telemetry, error)

	// TelemetryHistory returns up to limit snapshots, newest first
	TelemetryHistory(ctx context.Context, id string, limit int) ([]Telemetry, error)

	// IsConnected returns true if commands can reach devices
	IsConnected() bool

	// Close releases the transport
	Close()
}

// EventSubscriber defines the interface for subscribing to device events
type EventSubscriber interface {
	// Subscribe returns a channel that receives device events
	Subscribe() chan Event

	// Unsubscribe removes a subscription and closes its channel
	Unsubscribe(ch chan Event)
}
