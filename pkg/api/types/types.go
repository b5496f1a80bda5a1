package types

import (
	"encoding/json"
	"time"

	"github.com/urmzd/bikeiot/pkg/device"
)

// --- Request DTOs ---

// RegisterDeviceRequest is the request body for POST /devices
type RegisterDeviceRequest struct {
	ID           string          `json:"id" binding:"required"`
	Name         string          `json:"name"`
	Model        string          `json:"model"`
	ParamsSchema json.RawMessage `json:"params_schema,omitempty" swaggertype:"object"`
}

// RenameDeviceRequest is the request body for PATCH /devices/:id
type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required"`
}

// SendCommandRequest is the request body for POST /devices/:id/commands
type SendCommandRequest struct {
	device.CommandSpec
	// TTLSeconds overrides the configured command lifetime.
	TTLSeconds int `json:"ttl_seconds,omitempty"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Transport string    `json:"transport"`
	Timestamp time.Time `json:"timestamp"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []device.Device `json:"devices"`
	Count   int             `json:"count"`
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device device.Device `json:"device"`
}

// TelemetryResponse is returned from GET /devices/:id/telemetry
type TelemetryResponse struct {
	Telemetry device.Telemetry `json:"telemetry"`
}

// TelemetryHistoryResponse is returned from GET /devices/:id/telemetry/history
type TelemetryHistoryResponse struct {
	Telemetry []device.Telemetry `json:"telemetry"`
	Count     int                `json:"count"`
}

// CommandResponse is returned for a single command journal entry
type CommandResponse struct {
	Command device.CommandRecord `json:"command"`
}

// ListCommandsResponse is returned from GET /devices/:id/commands
type ListCommandsResponse struct {
	Commands []device.CommandRecord `json:"commands"`
	Count    int                    `json:"count"`
}

// ValidateResponse is returned from POST /packets/validate
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Rule  string `json:"rule,omitempty"`
	Kind  string `json:"kind"`
}
