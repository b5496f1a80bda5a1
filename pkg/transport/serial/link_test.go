package serial

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/transport"
)

// loopPort reads from a fixed input and records writes.
type loopPort struct {
	io.Reader
	mu     sync.Mutex
	out    bytes.Buffer
	closed bool
}

func (p *loopPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *loopPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestRunDeliversLines(t *testing.T) {
	port := &loopPort{Reader: strings.NewReader("CICAgAQQmr/7nwY=\n\n  {\"version\":65536}\r\n")}
	link := NewLink(port, "bench-1")

	var got []transport.Message
	err := link.Run(context.Background(), func(_ context.Context, msg transport.Message) {
		got = append(got, msg)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "CICAgAQQmr/7nwY=", string(got[0].Payload))
	assert.Equal(t, `{"version":65536}`, string(got[1].Payload))
	assert.Equal(t, "bench-1", got[0].DeviceID)
	assert.Equal(t, "serial", got[0].Transport)
}

func TestPublishWritesOneLine(t *testing.T) {
	port := &loopPort{Reader: strings.NewReader("")}
	link := NewLink(port, "bench-1")
	ctx := context.Background()

	require.NoError(t, link.Publish(ctx, "bench-1", []byte("CICAgAQ=")))
	assert.Equal(t, "CICAgAQ=\n", port.out.String())

	assert.ErrorIs(t, link.Publish(ctx, "bike-2", []byte("x")), transport.ErrUnknownDevice)
	assert.Error(t, link.Publish(ctx, "bench-1", []byte("a\nb")))
}

func TestCloseStopsPublishing(t *testing.T) {
	port := &loopPort{Reader: strings.NewReader("")}
	link := NewLink(port, "bench-1")
	assert.True(t, link.IsConnected())

	link.Close()
	link.Close()
	assert.True(t, port.closed)
	assert.False(t, link.IsConnected())
	assert.ErrorIs(t, link.Publish(context.Background(), "bench-1", []byte("x")), transport.ErrNotConnected)
}
