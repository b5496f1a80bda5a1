// Package mqtt connects the backend to the device broker.
//
// Commands are published to a per-device topic; every device packet
// arrives through one wildcard subscription whose "+" segment carries the
// device id.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/config"
	"github.com/urmzd/bikeiot/pkg/transport"
)

const transportName = "mqtt"

// Client implements transport.Publisher over an MQTT broker and feeds
// subscribed messages to a transport.Handler.
type Client struct {
	client    paho.Client
	cfg       config.MQTT
	handler   transport.Handler
	connected atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the broker and subscribes to the events topic. The
// subscription is renewed on every reconnect.
func Dial(ctx context.Context, cfg config.MQTT, handler transport.Handler) (*Client, error) {
	tlsConfig, err := cfg.TLSConfig()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		handler: handler,
		ctx:     runCtx,
		cancel:  cancel,
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetCleanSession(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.connected.Store(false)
		log.Warn().Err(err).Str("broker", cfg.BrokerURL).Msg("MQTT connection lost")
	})
	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		log.Info().Str("broker", cfg.BrokerURL).Msg("Reconnecting to MQTT broker")
	})

	c.client = paho.NewClient(opts)

	log.Info().Str("broker", cfg.BrokerURL).Str("client_id", cfg.ClientID).Msg("Connecting to MQTT broker")
	token := c.client.Connect()
	if err := wait(ctx, token, cfg.ConnectTimeout); err != nil {
		cancel()
		c.client.Disconnect(0)
		return nil, fmt.Errorf("connect %s: %w", cfg.BrokerURL, err)
	}

	return c, nil
}

func (c *Client) onConnect(client paho.Client) {
	token := client.Subscribe(c.cfg.EventsTopic, c.cfg.QoS, c.onMessage)
	if err := wait(c.ctx, token, c.cfg.ConnectTimeout); err != nil {
		log.Error().Err(err).Str("topic", c.cfg.EventsTopic).Msg("Failed to subscribe")
		return
	}
	c.connected.Store(true)
	log.Info().Str("topic", c.cfg.EventsTopic).Msg("Subscribed to device events")
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	deviceID, ok := DeviceIDFromTopic(c.cfg.EventsTopic, msg.Topic())
	if !ok {
		log.Warn().Str("topic", msg.Topic()).Msg("Ignoring message on unexpected topic")
		return
	}

	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	c.handler(c.ctx, transport.Message{
		DeviceID:   deviceID,
		Topic:      msg.Topic(),
		Payload:    payload,
		Transport:  transportName,
		ReceivedAt: time.Now(),
	})
}

// CommandTopic returns the topic commands for deviceID are published to.
func (c *Client) CommandTopic(deviceID string) string {
	return fmt.Sprintf(c.cfg.CommandTopic, deviceID)
}

// Publish sends payload to the command topic of deviceID and waits for
// the broker acknowledgement required by the configured QoS.
func (c *Client) Publish(ctx context.Context, deviceID string, payload []byte) error {
	if !c.IsConnected() {
		return transport.ErrNotConnected
	}
	topic := c.CommandTopic(deviceID)
	token := c.client.Publish(topic, c.cfg.QoS, false, payload)
	if err := wait(ctx, token, c.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("Published command")
	return nil
}

func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client.IsConnectionOpen()
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// work.
func (c *Client) Close() {
	c.cancel()
	c.connected.Store(false)
	c.client.Disconnect(250)
	log.Info().Str("broker", c.cfg.BrokerURL).Msg("MQTT client closed")
}

// wait blocks until token completes, ctx ends or timeout elapses. A zero
// timeout waits for ctx only.
func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer:
		return transport.ErrTimeout
	}
}

// DeviceIDFromTopic extracts the segment of topic that matches the single
// level wildcard of filter. It reports false when topic does not match
// filter or the filter has no "+".
func DeviceIDFromTopic(filter, topic string) (string, bool) {
	fparts := strings.Split(filter, "/")
	tparts := strings.Split(topic, "/")

	id := ""
	for i, f := range fparts {
		switch {
		case f == "#":
			return id, id != ""
		case i >= len(tparts):
			return "", false
		case f == "+":
			if id == "" {
				id = tparts[i]
			}
		case f != tparts[i]:
			return "", false
		}
	}
	if len(tparts) != len(fparts) {
		return "", false
	}
	return id, id != ""
}
