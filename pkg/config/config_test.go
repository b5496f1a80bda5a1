package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bikeiot.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Serial.Enabled())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[mqtt]
broker_url = "tcp://localhost:1883"
client_id = "backend-1"
qos = 0
connect_timeout = "3s"

[protocol]
transport = "binary"
command_ttl = "90s"

[serial]
port = "/dev/ttyUSB0"
device_id = "bench"

[fleet]
auto_register = false
telemetry_history = 50
expiry_interval = "1m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.BrokerURL)
	assert.Equal(t, "backend-1", cfg.MQTT.ClientID)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
	assert.Equal(t, 3*time.Second, cfg.MQTT.ConnectTimeout)
	assert.Equal(t, "$devices/%s/commands/command", cfg.MQTT.CommandTopic)
	assert.Equal(t, codec.ModeBinary, cfg.Protocol.Transport)
	assert.Equal(t, 90*time.Second, cfg.Protocol.CommandTTL)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.True(t, cfg.MQTT.Enabled())
	assert.True(t, cfg.Serial.Enabled())
	assert.Equal(t, Fleet{AutoRegister: false, TelemetryHistory: 50, ExpiryInterval: time.Minute}, cfg.Fleet)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "[mqtt]\nbroker = \"x\"\n",
		"bad qos":          "[mqtt]\nqos = 3\n",
		"bad transport":    "[protocol]\ntransport = \"xml\"\n",
		"bad ttl":          "[protocol]\ncommand_ttl = \"soon\"\n",
		"short ttl":        "[protocol]\ncommand_ttl = \"10ms\"\n",
		"topic":            "[mqtt]\nbroker_url = \"tcp://x:1\"\ncommand_topic = \"fixed\"\n",
		"cert without key": "[mqtt]\nbroker_url = \"tcp://x:1\"\ncert_file = \"c.pem\"\n",
		"serial no device": "[serial]\nport = \"/dev/ttyUSB0\"\n",
		"not toml":         "[mqtt\n",
		"no history":       "[fleet]\ntelemetry_history = 0\n",
		"fast expiry":      "[fleet]\nexpiry_interval = \"1ms\"\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestTLSConfig(t *testing.T) {
	cfg, err := MQTT{}.TLSConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = MQTT{CertFile: "missing.pem", KeyFile: "missing.key"}.TLSConfig()
	assert.Error(t, err)

	caPath := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(caPath, []byte("not a certificate"), 0o600))
	_, err = MQTT{RootCAFile: caPath}.TLSConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
