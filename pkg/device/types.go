package device

import (
	"encoding/json"
	"time"
)

// Device is a fleet unit (a bike lock or telemetry box) known to the
// backend.
type Device struct {
	ID           string            `json:"id"`            // Broker identity, also the MQTT topic segment
	Name         string            `json:"name"`          // User-friendly name
	Model        string            `json:"model"`         // Hardware model
	ParamsSchema json.RawMessage   `json:"params_schema"` // JSON Schema for setParams values
	Params       map[string]string `json:"params"`        // Last known parameter values
	LastSeen     *time.Time        `json:"last_seen,omitempty"`
}

// Command lifecycle states.
const (
	CommandPending   = "pending"
	CommandSucceeded = "succeeded"
	CommandFailed    = "failed"
	CommandExpired   = "expired"
)

// CommandRecord is the journal entry of a command sent to a device.
type CommandRecord struct {
	ChainID         string          `json:"chain_id"`
	DeviceID        string          `json:"device_id"`
	Kind            string          `json:"kind"`
	Status          string          `json:"status"`
	Packet          json.RawMessage `json:"packet"`
	SentAt          time.Time       `json:"sent_at"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
	Result          string          `json:"result,omitempty"`
	ErrorStatus     string          `json:"error_status,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	DeliveryTimeS   int32           `json:"delivery_time_s,omitempty"`
	ExecutionTimeMs int32           `json:"execution_time_ms,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// Telemetry is the newest measurement snapshot of a device. Data is the
// telemetry payload in the text wire form.
type Telemetry struct {
	DeviceID   string          `json:"device_id"`
	Timestamp  time.Time       `json:"timestamp"`
	ReceivedAt time.Time       `json:"received_at"`
	Data       json.RawMessage `json:"data"`
}

// Event is published for every inbound packet and command state change.
type Event struct {
	Type      string    `json:"type"`
	DeviceID  string    `json:"device_id"`
	Kind      string    `json:"kind,omitempty"`     // Payload kind of the packet
	ChainID   string    `json:"chain_id,omitempty"` // Set for command-related events
	Rule      string    `json:"rule,omitempty"`     // Failed validation rule of rejected packets
	Status    string    `json:"status,omitempty"`   // Command status
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventPacketAccepted    = "packet_accepted"
	EventPacketRejected    = "packet_rejected"
	EventPacketUndecodable = "packet_undecodable"
	EventCommandSent       = "command_sent"
	EventCommandCompleted  = "command_completed"
	EventDeviceRegistered  = "device_registered"
	EventDeviceRemoved     = "device_removed"
)
