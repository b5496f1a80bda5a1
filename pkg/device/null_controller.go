package device

import (
	"context"
	"time"

	"github.com/urmzd/bikeiot/pkg/protocol"
)

// NullController is a no-op controller for surfaces that run without a
// fleet backend, such as packet tooling only.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) RegisterDevice(ctx context.Context, d Device) (*Device, error) {
	return nil, ErrNotConnected
}

func (c *NullController) RenameDevice(ctx context.Context, id, newName string) error {
	return ErrNotConnected
}

func (c *NullController) RemoveDevice(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) SendCommand(ctx context.Context, id string, payload protocol.CommandPayload, ttl time.Duration) (*CommandRecord, error) {
	return nil, ErrNotConnected
}

func (c *NullController) GetCommand(ctx context.Context, chainID string) (*CommandRecord, error) {
	return nil, ErrCommandNotFound
}

func (c *NullController) ListCommands(ctx context.Context, id string, limit int) ([]CommandRecord, error) {
	return []CommandRecord{}, nil
}

func (c *NullController) LatestTelemetry(ctx context.Context, id string) (*Telemetry, error) {
	return nil, ErrNoTelemetry
}

func (c *NullController) TelemetryHistory(ctx context.Context, id string, limit int) ([]Telemetry, error) {
	return []Telemetry{}, nil
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

// Subscribe returns a channel that never receives.
func (s *NullEventSubscriber) Subscribe() chan Event {
	return make(chan Event)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}
