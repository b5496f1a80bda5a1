package codec

import (
	"github.com/urmzd/bikeiot/pkg/protocol"
	"google.golang.org/protobuf/types/dynamicpb"
)

// MarshalTelemetryText encodes a measurement object on its own, in the
// same JSON shape it has inside a telemetry packet.
func MarshalTelemetryText(tp *protocol.TelemetryPayload) ([]byte, error) {
	if tp == nil {
		tp = &protocol.TelemetryPayload{}
	}
	m := encodeTelemetry(&protocol.Telemetry{Payload: tp})
	pm := m.Get(fieldOf(schema.telemetry, "payload")).Message()
	out, err := textMarshal.Marshal(pm.Interface())
	if err != nil {
		return nil, encodeError(ModeText, err)
	}
	return out, nil
}

// UnmarshalTelemetryText decodes the output of MarshalTelemetryText.
func UnmarshalTelemetryText(data []byte) (*protocol.TelemetryPayload, error) {
	pm := dynamicpb.NewMessage(schema.telemetryPayload)
	if err := textUnmarshal.Unmarshal(data, pm); err != nil {
		return nil, decodeError(ModeText, err)
	}
	m := dynamicpb.NewMessage(schema.telemetry)
	setMessage(m, "payload", pm)
	return decodeTelemetry(m).Payload, nil
}
