package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bikeiot/pkg/protocol"
)

func TestTelemetryTextRoundTrip(t *testing.T) {
	tp := &protocol.TelemetryPayload{
		BatteryLevel: protocol.Uint32(87),
		Location:     &protocol.Location{Lat: 55.75, Lon: 37.61},
		Locked:       protocol.Bool(false),
		Sensors:      map[string]string{"temp": "21.5"},
	}

	out, err := MarshalTelemetryText(tp)
	require.NoError(t, err)

	var shape map[string]any
	require.NoError(t, json.Unmarshal(out, &shape))
	assert.Contains(t, shape, "batteryLevel")
	assert.Contains(t, shape, "locked")
	assert.NotContains(t, shape, "speedKmh")

	back, err := UnmarshalTelemetryText(out)
	require.NoError(t, err)
	assert.Equal(t, tp, back)
}

func TestTelemetryTextEmpty(t *testing.T) {
	out, err := MarshalTelemetryText(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	_, err = UnmarshalTelemetryText([]byte(`{"bogus": 1}`))
	assert.ErrorIs(t, err, ErrConversion)
}
