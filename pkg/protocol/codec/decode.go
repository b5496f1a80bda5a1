package codec

import (
	"errors"

	"github.com/urmzd/bikeiot/pkg/protocol"
	"github.com/urmzd/bikeiot/pkg/protocol/variant"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// decoded carries a handler result together with a nested decode error.
type decoded[T any] struct {
	val T
	err error
}

func just[T any](v T) decoded[T] {
	return decoded[T]{val: v}
}

// present selects the message held by the field name of md.
func present(md protoreflect.MessageDescriptor, name protoreflect.Name) func(protoreflect.Message) (protoreflect.Message, bool) {
	fd := fieldOf(md, name)
	return func(m protoreflect.Message) (protoreflect.Message, bool) {
		if !m.Has(fd) {
			return nil, false
		}
		return m.Get(fd).Message(), true
	}
}

var packetKinds = variant.NewSet("packet.what",
	variant.On("command", present(schema.packet, "command"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			c, err := decodeCommand(m)
			return decoded[protocol.Payload]{val: c, err: err}
		}),
	variant.On("commandResult", present(schema.packet, "command_result"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			r, err := decodeCommandResult(m)
			return decoded[protocol.Payload]{val: r, err: err}
		}),
	variant.On("request", present(schema.packet, "request"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			return just[protocol.Payload](&protocol.Request{ChainID: getString(m, "chain_id")})
		}),
	variant.On("response", present(schema.packet, "response"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			return just[protocol.Payload](&protocol.Response{
				ChainID:          getString(m, "chain_id"),
				Result:           protocol.ResultCode(getEnum(m, "result")),
				ErrorDescription: decodeErrorDescription(m),
			})
		}),
	variant.On("telemetry", present(schema.packet, "telemetry"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			return just[protocol.Payload](decodeTelemetry(m))
		}),
	variant.On("notification", present(schema.packet, "notification"),
		func(m protoreflect.Message) decoded[protocol.Payload] {
			return just[protocol.Payload](&protocol.Notification{Message: getString(m, "message")})
		}),
)

var commandKinds = variant.NewSet("command.payload",
	variant.On("configure", present(schema.commandPayload, "configure"),
		func(protoreflect.Message) decoded[protocol.CommandPayload] {
			return just[protocol.CommandPayload](&protocol.Configure{})
		}),
	variant.On("setState", present(schema.commandPayload, "set_state"),
		func(m protoreflect.Message) decoded[protocol.CommandPayload] {
			return just[protocol.CommandPayload](&protocol.SetState{State: getString(m, "state")})
		}),
	variant.On("setParams", present(schema.commandPayload, "set_params"),
		func(m protoreflect.Message) decoded[protocol.CommandPayload] {
			return just[protocol.CommandPayload](&protocol.SetParams{Params: getStringMap(m, "params")})
		}),
	variant.On("getParams", present(schema.commandPayload, "get_params"),
		func(m protoreflect.Message) decoded[protocol.CommandPayload] {
			return just[protocol.CommandPayload](&protocol.GetParams{Params: getStringList(m, "param")})
		}),
	variant.On("ping", present(schema.commandPayload, "ping"),
		func(protoreflect.Message) decoded[protocol.CommandPayload] {
			return just[protocol.CommandPayload](&protocol.Ping{})
		}),
)

var resultKinds = variant.NewSet("command_result.payload",
	variant.On("configure", present(schema.resultPayload, "configure"),
		func(protoreflect.Message) decoded[protocol.ResultPayload] {
			return just[protocol.ResultPayload](&protocol.Configure{})
		}),
	variant.On("setState", present(schema.resultPayload, "set_state"),
		func(m protoreflect.Message) decoded[protocol.ResultPayload] {
			return just[protocol.ResultPayload](&protocol.SetState{State: getString(m, "state")})
		}),
	variant.On("setParams", present(schema.resultPayload, "set_params"),
		func(m protoreflect.Message) decoded[protocol.ResultPayload] {
			return just[protocol.ResultPayload](&protocol.SetParams{Params: getStringMap(m, "params")})
		}),
	variant.On("getParams", present(schema.resultPayload, "get_params"),
		func(m protoreflect.Message) decoded[protocol.ResultPayload] {
			return just[protocol.ResultPayload](&protocol.ParamValues{Params: getStringMap(m, "params")})
		}),
	variant.On("ping", present(schema.resultPayload, "ping"),
		func(protoreflect.Message) decoded[protocol.ResultPayload] {
			return just[protocol.ResultPayload](&protocol.Ping{})
		}),
)

// dispatch selects the active member of a one-of group. An empty group
// decodes to the zero value.
func dispatch[T any](set variant.Set[protoreflect.Message, decoded[T]], m protoreflect.Message) (T, error) {
	var zero T
	d, err := set.Dispatch(m)
	if errors.Is(err, variant.ErrNoActiveVariant) {
		return zero, nil
	}
	if err != nil {
		return zero, err
	}
	return d.val, d.err
}

// fromMessage maps a dynamic message of the schema onto a canonical packet.
func fromMessage(m protoreflect.Message) (*protocol.Packet, error) {
	p := &protocol.Packet{
		Version:   uint32(getField(m, "version").Uint()),
		Timestamp: getField(m, "timestamp").Uint(),
	}
	if fd := fieldOf(m.Descriptor(), "valid_until"); m.Has(fd) {
		v := m.Get(fd).Uint()
		p.ValidUntil = &v
	}

	payload, err := dispatch(packetKinds, m)
	if err != nil {
		return nil, err
	}
	p.Payload = payload

	if raw := m.GetUnknown(); len(raw) > 0 {
		p.Unknown = append([]byte(nil), raw...)
	}
	return p, nil
}

func decodeCommand(m protoreflect.Message) (*protocol.Command, error) {
	c := &protocol.Command{ChainID: getString(m, "chain_id")}
	if sub, ok := present(schema.command, "payload")(m); ok {
		cp, err := dispatch(commandKinds, sub)
		if err != nil {
			return nil, err
		}
		c.Payload = cp
	}
	return c, nil
}

func decodeCommandResult(m protoreflect.Message) (*protocol.CommandResult, error) {
	r := &protocol.CommandResult{
		ChainID:          getString(m, "chain_id"),
		Result:           protocol.ResultCode(getEnum(m, "result")),
		ErrorDescription: decodeErrorDescription(m),
		DeliveryTimeS:    int32(getField(m, "cmd_delivery_time").Int()),
		ExecutionTimeMs:  int32(getField(m, "cmd_execution_time_ms").Int()),
	}
	if fd := fieldOf(m.Descriptor(), "prev_chain_id"); m.Has(fd) {
		s := m.Get(fd).String()
		r.PrevChainID = &s
	}
	if sub, ok := present(schema.commandResult, "payload")(m); ok {
		rp, err := dispatch(resultKinds, sub)
		if err != nil {
			return nil, err
		}
		r.Payload = rp
	}
	return r, nil
}

// decodeErrorDescription reads the error_description field of m.
func decodeErrorDescription(m protoreflect.Message) *protocol.ErrorDescription {
	fd := fieldOf(m.Descriptor(), "error_description")
	if !m.Has(fd) {
		return nil
	}
	sub := m.Get(fd).Message()
	ed := &protocol.ErrorDescription{}
	if f := fieldOf(sub.Descriptor(), "status"); sub.Has(f) {
		code := protocol.ErrorCode(sub.Get(f).Enum())
		ed.Status = &code
	}
	if f := fieldOf(sub.Descriptor(), "message"); sub.Has(f) {
		msg := sub.Get(f).String()
		ed.Message = &msg
	}
	return ed
}

func decodeTelemetry(m protoreflect.Message) *protocol.Telemetry {
	t := &protocol.Telemetry{}
	pm, ok := present(schema.telemetry, "payload")(m)
	if !ok {
		return t
	}

	tp := &protocol.TelemetryPayload{Sensors: getStringMap(pm, "sensors")}
	if f := fieldOf(pm.Descriptor(), "battery_level"); pm.Has(f) {
		v := uint32(pm.Get(f).Uint())
		tp.BatteryLevel = &v
	}
	if f := fieldOf(pm.Descriptor(), "speed_kmh"); pm.Has(f) {
		v := float32(pm.Get(f).Float())
		tp.SpeedKmh = &v
	}
	if loc, ok := present(schema.telemetryPayload, "location")(pm); ok {
		tp.Location = &protocol.Location{
			Lat: getField(loc, "lat").Float(),
			Lon: getField(loc, "lon").Float(),
		}
	}
	if f := fieldOf(pm.Descriptor(), "voltage"); pm.Has(f) {
		v := uint32(pm.Get(f).Uint())
		tp.Voltage = &v
	}
	if f := fieldOf(pm.Descriptor(), "gsm_signal_level"); pm.Has(f) {
		v := uint32(pm.Get(f).Uint())
		tp.GsmSignalLevel = &v
	}
	if f := fieldOf(pm.Descriptor(), "charging"); pm.Has(f) {
		v := pm.Get(f).Bool()
		tp.Charging = &v
	}
	if f := fieldOf(pm.Descriptor(), "locked"); pm.Has(f) {
		v := pm.Get(f).Bool()
		tp.Locked = &v
	}
	t.Payload = tp
	return t
}

func getField(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
	return m.Get(fieldOf(m.Descriptor(), name))
}

func getString(m protoreflect.Message, name protoreflect.Name) string {
	return getField(m, name).String()
}

func getEnum(m protoreflect.Message, name protoreflect.Name) int32 {
	return int32(getField(m, name).Enum())
}

func getStringMap(m protoreflect.Message, name protoreflect.Name) map[string]string {
	mp := getField(m, name).Map()
	if mp.Len() == 0 {
		return nil
	}
	out := make(map[string]string, mp.Len())
	mp.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}

func getStringList(m protoreflect.Message, name protoreflect.Name) []string {
	l := getField(m, name).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		out = append(out, l.Get(i).String())
	}
	return out
}
