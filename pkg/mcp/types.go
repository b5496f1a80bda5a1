package mcp

import (
	"github.com/urmzd/bikeiot/pkg/device"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Transport string `json:"transport" jsonschema:"description=Device transport connection status"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []device.Device `json:"devices" jsonschema:"description=Registered vehicles"`
	Count   int             `json:"count" jsonschema:"description=Total number of devices"`
}

// --- Get Device Tool ---

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device    device.Device     `json:"device" jsonschema:"description=Device information"`
	Telemetry *device.Telemetry `json:"telemetry,omitempty" jsonschema:"description=Latest telemetry snapshot"`
}

// --- Command Tools ---

// CommandOutput is the output for lock, unlock, battery_unlock, send_command
// and get_command_status
type CommandOutput struct {
	Command device.CommandRecord `json:"command" jsonschema:"description=Command journal entry"`
	Message string               `json:"message,omitempty" jsonschema:"description=Status message"`
}

// --- Packet Tools ---

// ValidatePacketOutput is the output for the validate_packet tool
type ValidatePacketOutput struct {
	Valid bool   `json:"valid" jsonschema:"description=Whether the packet satisfies every protocol rule"`
	Rule  string `json:"rule,omitempty" jsonschema:"description=First failed rule"`
	Kind  string `json:"kind" jsonschema:"description=Payload kind of the packet"`
}

// ConvertPacketOutput is the output for the convert_packet tool
type ConvertPacketOutput struct {
	From   string `json:"from" jsonschema:"description=Source wire form"`
	To     string `json:"to" jsonschema:"description=Target wire form"`
	Packet string `json:"packet" jsonschema:"description=Converted packet"`
}
