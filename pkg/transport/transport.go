// Package transport moves serialized packets between the backend and
// devices. Implementations live in subpackages.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotConnected  = errors.New("transport not connected")
	ErrUnknownDevice = errors.New("no route to device")
	ErrTimeout       = errors.New("transport operation timed out")
)

// Message is one serialized packet received from a device.
type Message struct {
	DeviceID   string
	Topic      string
	Payload    []byte
	Transport  string
	ReceivedAt time.Time
}

// Handler consumes inbound messages. Implementations must be safe for
// concurrent use.
type Handler func(ctx context.Context, msg Message)

// Publisher delivers serialized packets to a device.
type Publisher interface {
	Publish(ctx context.Context, deviceID string, payload []byte) error
	IsConnected() bool
	Close()
}

// Mux routes publications to per-device publishers and falls back to a
// default one.
type Mux struct {
	mu       sync.RWMutex
	routes   map[string]Publisher
	fallback Publisher
}

// NewMux creates a Mux. fallback may be nil.
func NewMux(fallback Publisher) *Mux {
	return &Mux{routes: make(map[string]Publisher), fallback: fallback}
}

// Route sends all packets for deviceID through p.
func (m *Mux) Route(deviceID string, p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[deviceID] = p
}

// SetFallback replaces the publisher used for devices without a route.
func (m *Mux) SetFallback(p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = p
}

func (m *Mux) lookup(deviceID string) Publisher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.routes[deviceID]; ok {
		return p
	}
	return m.fallback
}

func (m *Mux) Publish(ctx context.Context, deviceID string, payload []byte) error {
	p := m.lookup(deviceID)
	if p == nil {
		return ErrUnknownDevice
	}
	return p.Publish(ctx, deviceID, payload)
}

// IsConnected reports whether any underlying publisher is connected.
func (m *Mux) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fallback != nil && m.fallback.IsConnected() {
		return true
	}
	for _, p := range m.routes {
		if p.IsConnected() {
			return true
		}
	}
	return false
}

// Close closes every distinct publisher once.
func (m *Mux) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	closed := make(map[Publisher]bool)
	closeOnce := func(p Publisher) {
		if p == nil || closed[p] {
			return
		}
		closed[p] = true
		p.Close()
	}
	closeOnce(m.fallback)
	for _, p := range m.routes {
		closeOnce(p)
	}
}
