// Package config loads the transport configuration file.
//
// Runtime settings that belong to an installation (API listen address,
// profile) live in the database. Broker credentials, topics and the wire
// form are deployment concerns and come from a TOML file:
//
//	[mqtt]
//	broker_url   = "ssl://mqtt.cloud.yandex.net:8883"
//	client_id    = "bike_control_server"
//	cert_file    = "cert.pem"
//	key_file     = "key.pem"
//	root_ca_file = "rootCA.crt"
//
//	[protocol]
//	transport   = "text"
//	command_ttl = "5m"
//
//	[fleet]
//	auto_register     = true
//	telemetry_history = 1000
//	expiry_interval   = "30s"
package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urmzd/bikeiot/pkg/protocol/codec"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete transport configuration.
type Config struct {
	MQTT     MQTT
	Protocol Protocol
	Serial   Serial
	Fleet    Fleet
}

// MQTT configures the broker connection. An empty BrokerURL disables it.
type MQTT struct {
	BrokerURL  string
	ClientID   string
	CertFile   string
	KeyFile    string
	RootCAFile string
	// CommandTopic is a format string receiving the device id.
	CommandTopic string
	// EventsTopic is the subscription filter for device packets.
	EventsTopic    string
	QoS            byte
	ConnectTimeout time.Duration
}

// Enabled reports whether a broker is configured.
func (m MQTT) Enabled() bool {
	return m.BrokerURL != ""
}

// Protocol selects the wire form and command lifetime.
type Protocol struct {
	Transport  codec.Mode
	CommandTTL time.Duration
}

// Serial configures a bench link to a single device. An empty Port
// disables it.
type Serial struct {
	Port     string
	Baud     int
	DeviceID string
}

func (s Serial) Enabled() bool {
	return s.Port != ""
}

// Fleet tunes the device registry and command journal.
type Fleet struct {
	// AutoRegister adds unknown devices on their first accepted packet.
	AutoRegister     bool
	TelemetryHistory int
	ExpiryInterval   time.Duration
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MQTT: MQTT{
			ClientID:       "bike_control_server",
			CommandTopic:   "$devices/%s/commands/command",
			EventsTopic:    "$devices/+/events/#",
			QoS:            1,
			ConnectTimeout: 10 * time.Second,
		},
		Protocol: Protocol{
			Transport:  codec.ModeText,
			CommandTTL: 5 * time.Minute,
		},
		Serial: Serial{
			Baud: 115200,
		},
		Fleet: Fleet{
			AutoRegister:     true,
			TelemetryHistory: 1000,
			ExpiryInterval:   30 * time.Second,
		},
	}
}

type fileConfig struct {
	MQTT struct {
		BrokerURL      string `toml:"broker_url"`
		ClientID       string `toml:"client_id"`
		CertFile       string `toml:"cert_file"`
		KeyFile        string `toml:"key_file"`
		RootCAFile     string `toml:"root_ca_file"`
		CommandTopic   string `toml:"command_topic"`
		EventsTopic    string `toml:"events_topic"`
		QoS            int    `toml:"qos"`
		ConnectTimeout string `toml:"connect_timeout"`
	} `toml:"mqtt"`
	Protocol struct {
		Transport  string `toml:"transport"`
		CommandTTL string `toml:"command_ttl"`
	} `toml:"protocol"`
	Serial struct {
		Port     string `toml:"port"`
		Baud     int    `toml:"baud"`
		DeviceID string `toml:"device_id"`
	} `toml:"serial"`
	Fleet struct {
		AutoRegister     bool   `toml:"auto_register"`
		TelemetryHistory int    `toml:"telemetry_history"`
		ExpiryInterval   string `toml:"expiry_interval"`
	} `toml:"fleet"`
}

// Load reads path on top of Default. An empty path yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	str := func(key string, dst *string, v string) {
		if meta.IsDefined(strings.Split(key, ".")...) {
			*dst = strings.TrimSpace(v)
		}
	}
	str("mqtt.broker_url", &cfg.MQTT.BrokerURL, raw.MQTT.BrokerURL)
	str("mqtt.client_id", &cfg.MQTT.ClientID, raw.MQTT.ClientID)
	str("mqtt.cert_file", &cfg.MQTT.CertFile, raw.MQTT.CertFile)
	str("mqtt.key_file", &cfg.MQTT.KeyFile, raw.MQTT.KeyFile)
	str("mqtt.root_ca_file", &cfg.MQTT.RootCAFile, raw.MQTT.RootCAFile)
	str("mqtt.command_topic", &cfg.MQTT.CommandTopic, raw.MQTT.CommandTopic)
	str("mqtt.events_topic", &cfg.MQTT.EventsTopic, raw.MQTT.EventsTopic)
	str("serial.port", &cfg.Serial.Port, raw.Serial.Port)
	str("serial.device_id", &cfg.Serial.DeviceID, raw.Serial.DeviceID)

	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return Config{}, fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalidConfig)
		}
		cfg.MQTT.QoS = byte(raw.MQTT.QoS)
	}

	if meta.IsDefined("mqtt", "connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MQTT.ConnectTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse mqtt.connect_timeout: %w", err)
		}
		cfg.MQTT.ConnectTimeout = d
	}

	if meta.IsDefined("protocol", "transport") {
		mode, err := codec.ParseMode(raw.Protocol.Transport)
		if err != nil {
			return Config{}, fmt.Errorf("parse protocol.transport: %w", err)
		}
		cfg.Protocol.Transport = mode
	}

	if meta.IsDefined("protocol", "command_ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Protocol.CommandTTL))
		if err != nil {
			return Config{}, fmt.Errorf("parse protocol.command_ttl: %w", err)
		}
		cfg.Protocol.CommandTTL = d
	}

	if meta.IsDefined("serial", "baud") {
		cfg.Serial.Baud = raw.Serial.Baud
	}

	if meta.IsDefined("fleet", "auto_register") {
		cfg.Fleet.AutoRegister = raw.Fleet.AutoRegister
	}
	if meta.IsDefined("fleet", "telemetry_history") {
		cfg.Fleet.TelemetryHistory = raw.Fleet.TelemetryHistory
	}
	if meta.IsDefined("fleet", "expiry_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Fleet.ExpiryInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse fleet.expiry_interval: %w", err)
		}
		cfg.Fleet.ExpiryInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.MQTT.Enabled() {
		if c.MQTT.ClientID == "" {
			return fmt.Errorf("%w: mqtt.client_id is required", ErrInvalidConfig)
		}
		if strings.Count(c.MQTT.CommandTopic, "%s") != 1 {
			return fmt.Errorf("%w: mqtt.command_topic must contain exactly one %%s", ErrInvalidConfig)
		}
		if (c.MQTT.CertFile == "") != (c.MQTT.KeyFile == "") {
			return fmt.Errorf("%w: mqtt.cert_file and mqtt.key_file go together", ErrInvalidConfig)
		}
	}
	if c.Protocol.CommandTTL < time.Second {
		return fmt.Errorf("%w: protocol.command_ttl must be at least 1s", ErrInvalidConfig)
	}
	if c.Serial.Enabled() {
		if c.Serial.DeviceID == "" {
			return fmt.Errorf("%w: serial.device_id is required with serial.port", ErrInvalidConfig)
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("%w: serial.baud must be positive", ErrInvalidConfig)
		}
	}
	if c.Fleet.TelemetryHistory <= 0 {
		return fmt.Errorf("%w: fleet.telemetry_history must be positive", ErrInvalidConfig)
	}
	if c.Fleet.ExpiryInterval < time.Second {
		return fmt.Errorf("%w: fleet.expiry_interval must be at least 1s", ErrInvalidConfig)
	}
	return nil
}

// TLSConfig builds the client TLS configuration from the certificate
// files. It returns nil when no files are configured.
func (m MQTT) TLSConfig() (*tls.Config, error) {
	if m.CertFile == "" && m.RootCAFile == "" {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if m.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(m.CertFile, m.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if m.RootCAFile != "" {
		pem, err := os.ReadFile(m.RootCAFile)
		if err != nil {
			return nil, fmt.Errorf("read root CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidConfig, m.RootCAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
