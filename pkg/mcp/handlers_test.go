package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/protocol/packets"
)

type fakeController struct {
	device.NullController
	sent []protocol.CommandPayload
}

func (f *fakeController) GetDevice(_ context.Context, id string) (*device.Device, error) {
	if id != "bike-1" {
		return nil, device.ErrNotFound
	}
	return &device.Device{ID: id, Name: "Bike 1"}, nil
}

func (f *fakeController) SendCommand(_ context.Context, id string, payload protocol.CommandPayload, _ time.Duration) (*device.CommandRecord, error) {
	if id != "bike-1" {
		return nil, device.ErrNotFound
	}
	f.sent = append(f.sent, payload)
	return &device.CommandRecord{ChainID: "c-1", DeviceID: id, Status: device.CommandPending}, nil
}

func (f *fakeController) IsConnected() bool { return true }

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestGetHealth(t *testing.T) {
	s := NewServer(&fakeController{}, nil)

	res, err := s.handleGetHealth(context.Background(), call(nil))
	require.NoError(t, err)

	var out GetHealthOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "connected", out.Transport)
}

func TestLockTools(t *testing.T) {
	ctrl := &fakeController{}
	s := NewServer(ctrl, nil)
	ctx := context.Background()

	for _, handle := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		s.handleLock, s.handleUnlock, s.handleBatteryUnlock,
	} {
		res, err := handle(ctx, call(map[string]any{"id": "bike-1"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)

		var out CommandOutput
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
		assert.Equal(t, "c-1", out.Command.ChainID)
	}

	assert.Equal(t, []protocol.CommandPayload{
		device.LockCommand(), device.UnlockCommand(), device.BatteryUnlockCommand(),
	}, ctrl.sent)

	res, err := s.handleLock(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleLock(ctx, call(map[string]any{"id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSendCommandTool(t *testing.T) {
	ctrl := &fakeController{}
	s := NewServer(ctrl, nil)
	ctx := context.Background()

	res, err := s.handleSendCommand(ctx, call(map[string]any{"id": "bike-1", "param": "alarm", "value": "on"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleSendCommand(ctx, call(map[string]any{"id": "bike-1", "param": "alarm"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	assert.Equal(t, []protocol.CommandPayload{
		&protocol.SetParams{Params: map[string]string{"alarm": "on"}},
		&protocol.GetParams{Params: []string{"alarm"}},
	}, ctrl.sent)

	res, err = s.handleSendCommand(ctx, call(map[string]any{"id": "bike-1", "param": "alarm", "value": 3.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetCommandStatusTool(t *testing.T) {
	s := NewServer(&fakeController{}, nil)

	res, err := s.handleGetCommandStatus(context.Background(), call(map[string]any{"chain_id": "c-1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "null controller knows no commands")
}

func TestValidatePacketTool(t *testing.T) {
	s := NewServer(&fakeController{}, nil)
	ctx := context.Background()

	text, err := codec.MarshalText(packets.NewBuilder(nil).Request())
	require.NoError(t, err)

	res, err := s.handleValidatePacket(ctx, call(map[string]any{"packet": string(text)}))
	require.NoError(t, err)
	var out ValidatePacketOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, ValidatePacketOutput{Valid: true, Kind: "request"}, out)

	res, err = s.handleValidatePacket(ctx, call(map[string]any{"packet": "{}", "transport": "text"}))
	require.NoError(t, err)
	out = ValidatePacketOutput{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, "version", out.Rule)

	res, err = s.handleValidatePacket(ctx, call(map[string]any{"packet": "{", "transport": "text"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestConvertPacketTool(t *testing.T) {
	s := NewServer(&fakeController{}, nil)
	ctx := context.Background()

	pkt := packets.NewBuilder(nil).Command("c-1", time.Minute, &protocol.GetParams{Params: []string{"alarm"}})
	text, err := codec.MarshalText(pkt)
	require.NoError(t, err)

	res, err := s.handleConvertPacket(ctx, call(map[string]any{"packet": string(text), "to": "binary"}))
	require.NoError(t, err)
	var out ConvertPacketOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "text", out.From)
	assert.Equal(t, "binary", out.To)

	back, err := codec.NewConverter(codec.ModeBinary).Deserialize([]byte(out.Packet))
	require.NoError(t, err)
	assert.Equal(t, pkt, back)

	res, err = s.handleConvertPacket(ctx, call(map[string]any{"packet": string(text)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleConvertPacket(ctx, call(map[string]any{"packet": string(text), "to": "yaml"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
