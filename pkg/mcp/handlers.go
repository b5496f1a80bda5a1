package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transportStatus := "disconnected"
	if s.controller.IsConnected() {
		transportStatus = "connected"
	}

	status := "healthy"
	if transportStatus != "connected" {
		status = "unhealthy"
	}

	out := GetHealthOutput{
		Status:    status,
		Transport: transportStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}

	out := ListDevicesOutput{
		Devices: devices,
		Count:   len(devices),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	out := GetDeviceOutput{Device: *d}
	if t, err := s.controller.LatestTelemetry(ctx, id); err == nil {
		out.Telemetry = t
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleLock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.sendCommand(ctx, request, device.LockCommand(), "lock")
}

func (s *Server) handleUnlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.sendCommand(ctx, request, device.UnlockCommand(), "unlock")
}

func (s *Server) handleBatteryUnlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.sendCommand(ctx, request, device.BatteryUnlockCommand(), "battery unlock")
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	param, err := requiredString(request, "param")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := optionalString(request, "value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	action := fmt.Sprintf("set %s=%s", param, value)
	if value == "" {
		action = "read " + param
	}
	return s.sendCommand(ctx, request, device.ParamCommand(param, value), action)
}

func (s *Server) sendCommand(ctx context.Context, request mcp.CallToolRequest, payload protocol.CommandPayload, action string) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.controller.SendCommand(ctx, id, payload, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %s", action, err)), nil
	}

	out := CommandOutput{
		Command: *rec,
		Message: fmt.Sprintf("Sent %s to %q; poll get_command_status with chain_id %s", action, id, rec.ChainID),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetCommandStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chainID, err := requiredString(request, "chain_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.controller.GetCommand(ctx, chainID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get command: %s", err)), nil
	}

	out := CommandOutput{Command: *rec}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleValidatePacket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packet, err := requiredString(request, "packet")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := modeArgument(request, "transport", packet)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := codec.NewConverter(mode).Deserialize([]byte(packet))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode packet: %s", err)), nil
	}

	verdict := s.validator.Check(p)
	out := ValidatePacketOutput{
		Valid: verdict.Valid,
		Rule:  string(verdict.Rule),
		Kind:  verdict.Kind.String(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleConvertPacket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packet, err := requiredString(request, "packet")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := requiredString(request, "to"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := modeArgument(request, "from", packet)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := modeArgument(request, "to", packet)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	converted, err := codec.Transcode([]byte(packet), from, to)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to convert packet: %s", err)), nil
	}

	out := ConvertPacketOutput{
		From:   from.String(),
		To:     to.String(),
		Packet: string(converted),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(request mcp.CallToolRequest, key string) (string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	return s, nil
}

// modeArgument parses a wire form argument, detecting it from packet when
// absent.
func modeArgument(request mcp.CallToolRequest, key, packet string) (codec.Mode, error) {
	raw, err := optionalString(request, key)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return codec.DetectMode([]byte(packet)), nil
	}
	mode, err := codec.ParseMode(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be text or binary", key)
	}
	return mode, nil
}

func formatJSON(v any) string {
	b, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
