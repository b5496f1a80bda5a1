package codec

import (
	"fmt"

	"github.com/urmzd/bikeiot/pkg/protocol"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// toMessage maps a canonical packet onto a dynamic message of the schema.
func toMessage(p *protocol.Packet) (*dynamicpb.Message, error) {
	if p == nil {
		return nil, ErrNilPacket
	}

	m := dynamicpb.NewMessage(schema.packet)
	setUint32(m, "version", p.Version)
	setUint64(m, "timestamp", p.Timestamp)
	if p.ValidUntil != nil {
		set(m, "valid_until", protoreflect.ValueOfUint64(*p.ValidUntil))
	}

	switch pl := p.Payload.(type) {
	case nil:
	case *protocol.Command:
		if pl != nil {
			setMessage(m, "command", encodeCommand(pl))
		}
	case *protocol.CommandResult:
		if pl != nil {
			setMessage(m, "command_result", encodeCommandResult(pl))
		}
	case *protocol.Request:
		if pl != nil {
			sub := dynamicpb.NewMessage(schema.request)
			setString(sub, "chain_id", pl.ChainID)
			setMessage(m, "request", sub)
		}
	case *protocol.Response:
		if pl != nil {
			setMessage(m, "response", encodeResponse(pl))
		}
	case *protocol.Telemetry:
		if pl != nil {
			setMessage(m, "telemetry", encodeTelemetry(pl))
		}
	case *protocol.Notification:
		if pl != nil {
			sub := dynamicpb.NewMessage(schema.notification)
			setString(sub, "message", pl.Message)
			setMessage(m, "notification", sub)
		}
	default:
		return nil, fmt.Errorf("unsupported payload %T", p.Payload)
	}

	if len(p.Unknown) > 0 {
		if err := checkRawFields(p.Unknown); err != nil {
			return nil, err
		}
		m.SetUnknown(protoreflect.RawFields(p.Unknown))
	}

	return m, nil
}

func encodeCommand(c *protocol.Command) *dynamicpb.Message {
	m := dynamicpb.NewMessage(schema.command)
	setString(m, "chain_id", c.ChainID)
	if name, sub := commandVariant(c.Payload); sub != nil {
		cp := dynamicpb.NewMessage(schema.commandPayload)
		setMessage(cp, name, sub)
		setMessage(m, "payload", cp)
	}
	return m
}

// commandVariant returns the one-of field for p. A nil interface or a nil
// pointer has no variant, the same as for the dispatcher.
func commandVariant(p protocol.CommandPayload) (protoreflect.Name, *dynamicpb.Message) {
	switch v := p.(type) {
	case *protocol.Configure:
		if v != nil {
			return "configure", dynamicpb.NewMessage(schema.configure)
		}
	case *protocol.SetState:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.setState)
			setString(sub, "state", v.State)
			return "set_state", sub
		}
	case *protocol.SetParams:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.setParams)
			setStringMap(sub, "params", v.Params)
			return "set_params", sub
		}
	case *protocol.GetParams:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.getParams)
			setStringList(sub, "param", v.Params)
			return "get_params", sub
		}
	case *protocol.Ping:
		if v != nil {
			return "ping", dynamicpb.NewMessage(schema.ping)
		}
	}
	return "", nil
}

func resultVariant(p protocol.ResultPayload) (protoreflect.Name, *dynamicpb.Message) {
	switch v := p.(type) {
	case *protocol.Configure:
		if v != nil {
			return "configure", dynamicpb.NewMessage(schema.configure)
		}
	case *protocol.SetState:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.setState)
			setString(sub, "state", v.State)
			return "set_state", sub
		}
	case *protocol.SetParams:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.setParams)
			setStringMap(sub, "params", v.Params)
			return "set_params", sub
		}
	case *protocol.ParamValues:
		if v != nil {
			sub := dynamicpb.NewMessage(schema.paramValues)
			setStringMap(sub, "params", v.Params)
			return "get_params", sub
		}
	case *protocol.Ping:
		if v != nil {
			return "ping", dynamicpb.NewMessage(schema.ping)
		}
	}
	return "", nil
}

func encodeCommandResult(r *protocol.CommandResult) *dynamicpb.Message {
	m := dynamicpb.NewMessage(schema.commandResult)
	setString(m, "chain_id", r.ChainID)
	setEnum(m, "result", int32(r.Result))
	if r.ErrorDescription != nil {
		setMessage(m, "error_description", encodeErrorDescription(r.ErrorDescription))
	}
	if name, sub := resultVariant(r.Payload); sub != nil {
		rp := dynamicpb.NewMessage(schema.resultPayload)
		setMessage(rp, name, sub)
		setMessage(m, "payload", rp)
	}
	if r.PrevChainID != nil {
		set(m, "prev_chain_id", protoreflect.ValueOfString(*r.PrevChainID))
	}
	if r.DeliveryTimeS != 0 {
		set(m, "cmd_delivery_time", protoreflect.ValueOfInt32(r.DeliveryTimeS))
	}
	if r.ExecutionTimeMs != 0 {
		set(m, "cmd_execution_time_ms", protoreflect.ValueOfInt32(r.ExecutionTimeMs))
	}
	return m
}

func encodeResponse(r *protocol.Response) *dynamicpb.Message {
	m := dynamicpb.NewMessage(schema.response)
	setString(m, "chain_id", r.ChainID)
	setEnum(m, "result", int32(r.Result))
	if r.ErrorDescription != nil {
		setMessage(m, "error_description", encodeErrorDescription(r.ErrorDescription))
	}
	return m
}

func encodeErrorDescription(ed *protocol.ErrorDescription) *dynamicpb.Message {
	m := dynamicpb.NewMessage(schema.errorDescription)
	if ed.Status != nil {
		set(m, "status", protoreflect.ValueOfEnum(protoreflect.EnumNumber(*ed.Status)))
	}
	if ed.Message != nil {
		set(m, "message", protoreflect.ValueOfString(*ed.Message))
	}
	return m
}

func encodeTelemetry(t *protocol.Telemetry) *dynamicpb.Message {
	m := dynamicpb.NewMessage(schema.telemetry)
	if t.Payload == nil {
		return m
	}

	tp := t.Payload
	pm := dynamicpb.NewMessage(schema.telemetryPayload)
	if tp.BatteryLevel != nil {
		set(pm, "battery_level", protoreflect.ValueOfUint32(*tp.BatteryLevel))
	}
	if tp.SpeedKmh != nil {
		set(pm, "speed_kmh", protoreflect.ValueOfFloat32(*tp.SpeedKmh))
	}
	if tp.Location != nil {
		loc := dynamicpb.NewMessage(schema.location)
		if tp.Location.Lat != 0 {
			set(loc, "lat", protoreflect.ValueOfFloat64(tp.Location.Lat))
		}
		if tp.Location.Lon != 0 {
			set(loc, "lon", protoreflect.ValueOfFloat64(tp.Location.Lon))
		}
		setMessage(pm, "location", loc)
	}
	if tp.Voltage != nil {
		set(pm, "voltage", protoreflect.ValueOfUint32(*tp.Voltage))
	}
	if tp.GsmSignalLevel != nil {
		set(pm, "gsm_signal_level", protoreflect.ValueOfUint32(*tp.GsmSignalLevel))
	}
	if tp.Charging != nil {
		set(pm, "charging", protoreflect.ValueOfBool(*tp.Charging))
	}
	if tp.Locked != nil {
		set(pm, "locked", protoreflect.ValueOfBool(*tp.Locked))
	}
	setStringMap(pm, "sensors", tp.Sensors)
	setMessage(m, "payload", pm)
	return m
}

func set(m protoreflect.Message, name protoreflect.Name, v protoreflect.Value) {
	m.Set(fieldOf(m.Descriptor(), name), v)
}

func setMessage(m protoreflect.Message, name protoreflect.Name, sub protoreflect.Message) {
	set(m, name, protoreflect.ValueOfMessage(sub))
}

// Fields without presence are left unset when zero.

func setString(m protoreflect.Message, name protoreflect.Name, s string) {
	if s != "" {
		set(m, name, protoreflect.ValueOfString(s))
	}
}

func setUint32(m protoreflect.Message, name protoreflect.Name, v uint32) {
	if v != 0 {
		set(m, name, protoreflect.ValueOfUint32(v))
	}
}

func setUint64(m protoreflect.Message, name protoreflect.Name, v uint64) {
	if v != 0 {
		set(m, name, protoreflect.ValueOfUint64(v))
	}
}

func setEnum(m protoreflect.Message, name protoreflect.Name, v int32) {
	if v != 0 {
		set(m, name, protoreflect.ValueOfEnum(protoreflect.EnumNumber(v)))
	}
}

func setStringMap(m protoreflect.Message, name protoreflect.Name, values map[string]string) {
	if len(values) == 0 {
		return
	}
	fd := fieldOf(m.Descriptor(), name)
	mp := m.NewField(fd).Map()
	for k, v := range values {
		mp.Set(protoreflect.ValueOfString(k).MapKey(), protoreflect.ValueOfString(v))
	}
	m.Set(fd, protoreflect.ValueOfMap(mp))
}

func setStringList(m protoreflect.Message, name protoreflect.Name, values []string) {
	if len(values) == 0 {
		return
	}
	fd := fieldOf(m.Descriptor(), name)
	l := m.NewField(fd).List()
	for _, v := range values {
		l.Append(protoreflect.ValueOfString(v))
	}
	m.Set(fd, protoreflect.ValueOfList(l))
}

// checkRawFields verifies that raw is a sequence of well-formed wire fields.
func checkRawFields(raw []byte) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return fmt.Errorf("unknown fields: %w", protowire.ParseError(n))
		}
		m := protowire.ConsumeFieldValue(num, typ, raw[n:])
		if m < 0 {
			return fmt.Errorf("unknown field %d: %w", num, protowire.ParseError(m))
		}
		raw = raw[n+m:]
	}
	return nil
}
