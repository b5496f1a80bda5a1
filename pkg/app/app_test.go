package app

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
	"github.com/urmzd/bikeiot/pkg/protocol/packets"
	"github.com/urmzd/bikeiot/pkg/transport/serial"
)

func open(t *testing.T) *App {
	t.Helper()
	a, err := Open(context.Background(), Options{DBPath: filepath.Join(t.TempDir(), "bikeiot.db")})
	require.NoError(t, err)
	return a
}

func TestOpenWithDefaults(t *testing.T) {
	ctx := context.Background()
	a := open(t)

	assert.NotZero(t, a.Settings.ProfileID())
	assert.Equal(t, "0.0.0.0:8080", a.Settings.APIAddress())
	assert.NotNil(t, a.Settings.Location())
	assert.True(t, a.Config.Fleet.AutoRegister)

	a.Connect(ctx)
	assert.False(t, a.Fleet.IsConnected())

	devices, err := a.Fleet.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)

	_, err = a.Fleet.SendCommand(ctx, "bike-1", device.LockCommand(), 0)
	assert.ErrorIs(t, err, device.ErrNotConnected)

	require.NoError(t, a.Close())
}

func TestOpenReusesDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bikeiot.db")

	first, err := Open(ctx, Options{DBPath: path})
	require.NoError(t, err)
	_, err = first.Fleet.RegisterDevice(ctx, device.Device{ID: "bike-1"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, Options{DBPath: path})
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close()) }()

	assert.Equal(t, first.Settings.ProfileID(), second.Settings.ProfileID())
	_, err = second.Fleet.GetDevice(ctx, "bike-1")
	assert.NoError(t, err)
}

func TestOpenRejectsMissingConfig(t *testing.T) {
	_, err := Open(context.Background(), Options{
		DBPath:     filepath.Join(t.TempDir(), "bikeiot.db"),
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
	})
	assert.Error(t, err)
}

func TestSerialLinkRoundTrip(t *testing.T) {
	a := open(t)
	host, bench := net.Pipe()

	a.AddLink(serial.NewLink(host, "bench-1"))
	require.True(t, a.Fleet.IsConnected())

	ctx, cancel := context.WithCancel(context.Background())
	a.Run(ctx)

	lines := make(chan string, 4)
	go func() {
		r := bufio.NewReader(bench)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()

	// Telemetry from an unknown bench device registers it.
	pkt := packets.NewBuilder(nil).Telemetry(&protocol.TelemetryPayload{BatteryLevel: protocol.Uint32(91)})
	frame, err := codec.NewConverter(codec.ModeBinary).Serialize(pkt)
	require.NoError(t, err)
	_, err = bench.Write(append(frame, '\n'))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := a.Fleet.LatestTelemetry(context.Background(), "bench-1")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	rec, err := a.Fleet.SendCommand(context.Background(), "bench-1", device.LockCommand(), 0)
	require.NoError(t, err)
	assert.Equal(t, device.CommandPending, rec.Status)

	var line string
	select {
	case line = <-lines:
	case <-time.After(time.Second):
		t.Fatal("no command written to the link")
	}

	got, err := codec.NewConverter(codec.DetectMode([]byte(line))).Deserialize([]byte(line[:len(line)-1]))
	require.NoError(t, err)
	cmd, ok := got.Payload.(*protocol.Command)
	require.True(t, ok)
	assert.Equal(t, rec.ChainID, cmd.ChainID)
	assert.Equal(t, device.LockCommand(), cmd.Payload)

	cancel()
	require.NoError(t, a.Close())
	_ = bench.Close()
}
