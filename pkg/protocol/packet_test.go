package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionPacking(t *testing.T) {
	v := NewVersion(1, 2)
	assert.Equal(t, Version(0x00010002), v)
	assert.Equal(t, uint16(1), v.Major())
	assert.Equal(t, uint16(2), v.Minor())
	assert.Equal(t, "1.2", v.String())
	assert.Equal(t, "1.0", DefaultVersion.String())
}

func TestPacketKind(t *testing.T) {
	var nilPacket *Packet
	assert.Equal(t, KindNone, nilPacket.Kind())
	assert.Equal(t, KindNone, (&Packet{}).Kind())
	assert.Equal(t, KindTelemetry, (&Packet{Payload: &Telemetry{}}).Kind())
	assert.Equal(t, "commandResult", KindCommandResult.String())
	assert.Equal(t, "setParams", CommandSetParams.String())
}

func TestTelemetryHasMeasurement(t *testing.T) {
	tests := []struct {
		name    string
		payload *TelemetryPayload
		want    bool
	}{
		{"nil", nil, false},
		{"empty", &TelemetryPayload{}, false},
		{"empty sensors", &TelemetryPayload{Sensors: map[string]string{}}, false},
		{"sensors", &TelemetryPayload{Sensors: map[string]string{"imei": "1"}}, true},
		{"voltage", &TelemetryPayload{Voltage: Uint32(373)}, true},
		{"locked false", &TelemetryPayload{Locked: Bool(false)}, true},
		{"location", &TelemetryPayload{Location: &Location{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payload.HasMeasurement())
		})
	}
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "RESULT_FAILED", ResultFailed.String())
	assert.Equal(t, "ResultCode(9)", ResultCode(9).String())

	code, ok := ParseErrorCode("STATUS_BUSY")
	assert.True(t, ok)
	assert.Equal(t, StatusBusy, code)

	_, ok = ParseErrorCode("STATUS_NOPE")
	assert.False(t, ok)
}
