package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	// Health check
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health of the fleet backend and its device transport"),
		),
		s.handleGetHealth,
	)

	// List devices
	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List all registered vehicles with their last known parameters"),
		),
		s.handleListDevices,
	)

	// Get device
	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get a vehicle with its parameters and latest telemetry"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id"),
			),
		),
		s.handleGetDevice,
	)

	// Lock and unlock (convenience)
	s.mcpServer.AddTool(
		mcp.NewTool("lock",
			mcp.WithDescription("Lock a vehicle"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id"),
			),
		),
		s.handleLock,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("unlock",
			mcp.WithDescription("Unlock a vehicle"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id"),
			),
		),
		s.handleUnlock,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("battery_unlock",
			mcp.WithDescription("Release the battery compartment of a vehicle"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id"),
			),
		),
		s.handleBatteryUnlock,
	)

	// Generic parameter command
	s.mcpServer.AddTool(
		mcp.NewTool("send_command",
			mcp.WithDescription("Set a vehicle parameter, or read it back when no value is given"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id"),
			),
			mcp.WithString("param",
				mcp.Required(),
				mcp.Description("Parameter name (e.g. vehicle_lock, alarm, max_speed_kmh)"),
			),
			mcp.WithString("value",
				mcp.Description("Value to set. Omit to read the current value."),
			),
		),
		s.handleSendCommand,
	)

	// Command status
	s.mcpServer.AddTool(
		mcp.NewTool("get_command_status",
			mcp.WithDescription("Get the journal entry of a command, including the device's result once reported"),
			mcp.WithString("chain_id",
				mcp.Required(),
				mcp.Description("Chain id returned when the command was sent"),
			),
		),
		s.handleGetCommandStatus,
	)

	// Packet tools
	s.mcpServer.AddTool(
		mcp.NewTool("validate_packet",
			mcp.WithDescription("Decode a serialized packet and report the first protocol rule it fails"),
			mcp.WithString("packet",
				mcp.Required(),
				mcp.Description("Packet in the text (JSON) or binary (base64) wire form"),
			),
			mcp.WithString("transport",
				mcp.Description("Wire form of the packet: text or binary (detected when omitted)"),
			),
		),
		s.handleValidatePacket,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("convert_packet",
			mcp.WithDescription("Convert a serialized packet between the text and binary wire forms"),
			mcp.WithString("packet",
				mcp.Required(),
				mcp.Description("Packet to convert"),
			),
			mcp.WithString("from",
				mcp.Description("Wire form of the packet (detected when omitted)"),
			),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Target wire form: text or binary"),
			),
		),
		s.handleConvertPacket,
	)
}
