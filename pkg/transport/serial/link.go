// Package serial carries packets over a UART to a single bench device.
//
// The line is text only: every packet is one line, either compact JSON or
// the base64 frame of the binary form, terminated by '\n'.
package serial

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bikeiot/pkg/config"
	"github.com/urmzd/bikeiot/pkg/transport"
	"go.bug.st/serial"
)

const (
	transportName = "serial"
	maxLineLength = 64 * 1024
)

// Link implements transport.Publisher for one device behind a serial
// port.
type Link struct {
	port     io.ReadWriteCloser
	deviceID string
	portName string

	mu     sync.Mutex
	closed bool
}

// Open opens the configured port at cfg.Baud, 8N1.
func Open(cfg config.Serial) (*Link, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	log.Info().Str("port", cfg.Port).Int("baud", cfg.Baud).Str("device_id", cfg.DeviceID).Msg("Serial port opened")

	l := NewLink(port, cfg.DeviceID)
	l.portName = cfg.Port
	return l, nil
}

// NewLink wraps an already open stream.
func NewLink(rw io.ReadWriteCloser, deviceID string) *Link {
	return &Link{port: rw, deviceID: deviceID, portName: transportName}
}

// DeviceID returns the id of the device on the other end.
func (l *Link) DeviceID() string {
	return l.deviceID
}

// Run reads lines until the port fails or ctx ends and hands each
// non-empty line to handler. Closing the link makes Run return nil.
func (l *Link) Run(ctx context.Context, handler transport.Handler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(l.port)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		payload := make([]byte, len(line))
		copy(payload, line)

		handler(ctx, transport.Message{
			DeviceID:   l.deviceID,
			Topic:      l.portName,
			Payload:    payload,
			Transport:  transportName,
			ReceivedAt: time.Now(),
		})
	}

	err := scanner.Err()
	if l.isClosed() || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Publish writes payload as one line. Only the linked device is reachable.
func (l *Link) Publish(_ context.Context, deviceID string, payload []byte) error {
	if deviceID != l.deviceID {
		return fmt.Errorf("%w: %s is not on %s", transport.ErrUnknownDevice, deviceID, l.portName)
	}
	if bytes.IndexByte(payload, '\n') >= 0 {
		return fmt.Errorf("payload for %s contains a line break", deviceID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return transport.ErrNotConnected
	}

	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')
	if _, err := l.port.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", l.portName, err)
	}
	return nil
}

func (l *Link) IsConnected() bool {
	return !l.isClosed()
}

func (l *Link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if err := l.port.Close(); err != nil {
		log.Warn().Err(err).Str("port", l.portName).Msg("Failed to close serial port")
	}
}
