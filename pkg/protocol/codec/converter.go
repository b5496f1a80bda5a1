// Package codec converts packets between the canonical model and the two
// wire forms: protobuf JSON text and protobuf binary, the latter framed as
// base64 text.
//
// Conversion failures are reported as *ConversionError and match
// ErrConversion. They say nothing about whether a packet is valid.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/urmzd/bikeiot/pkg/protocol"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Mode selects the wire form used by a Converter.
type Mode int

const (
	ModeText Mode = iota
	ModeBinary
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeBinary:
		return "binary"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "text" (or "json") and "binary".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "json":
		return ModeText, nil
	case "binary", "protobuf", "base64":
		return ModeBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

var (
	textMarshal   = protojson.MarshalOptions{}
	textUnmarshal = protojson.UnmarshalOptions{}
	debugMarshal  = protojson.MarshalOptions{Multiline: true, Indent: "  "}
	binMarshal    = proto.MarshalOptions{Deterministic: true}
	binUnmarshal  = proto.UnmarshalOptions{}
)

// Converter serializes and deserializes packets in one wire form. It is
// stateless and safe for concurrent use.
type Converter struct {
	mode Mode
}

// NewConverter creates a Converter for mode.
func NewConverter(mode Mode) *Converter {
	return &Converter{mode: mode}
}

// Mode returns the converter's wire form.
func (c *Converter) Mode() Mode {
	return c.mode
}

// Serialize encodes p. Binary output is base64 framed.
func (c *Converter) Serialize(p *protocol.Packet) ([]byte, error) {
	switch c.mode {
	case ModeText:
		return MarshalText(p)
	case ModeBinary:
		raw, err := MarshalBinary(p)
		if err != nil {
			return nil, err
		}
		return EncodeFrame(raw), nil
	default:
		return nil, encodeError(c.mode, ErrUnknownMode)
	}
}

// Deserialize decodes data produced by Serialize in the same mode.
func (c *Converter) Deserialize(data []byte) (*protocol.Packet, error) {
	switch c.mode {
	case ModeText:
		return UnmarshalText(data)
	case ModeBinary:
		raw, err := DecodeFrame(data)
		if err != nil {
			return nil, decodeError(ModeBinary, err)
		}
		return UnmarshalBinary(raw)
	default:
		return nil, decodeError(c.mode, ErrUnknownMode)
	}
}

// MarshalText encodes p as protobuf JSON.
func MarshalText(p *protocol.Packet) ([]byte, error) {
	m, err := toMessage(p)
	if err != nil {
		return nil, encodeError(ModeText, err)
	}
	out, err := textMarshal.Marshal(m)
	if err != nil {
		return nil, encodeError(ModeText, err)
	}
	return out, nil
}

// UnmarshalText decodes protobuf JSON. Unknown keys are rejected.
func UnmarshalText(data []byte) (*protocol.Packet, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, decodeError(ModeText, ErrEmbeddedNUL)
	}

	m := dynamicpb.NewMessage(schema.packet)
	if err := textUnmarshal.Unmarshal(data, m); err != nil {
		return nil, decodeError(ModeText, err)
	}
	p, err := fromMessage(m)
	if err != nil {
		return nil, decodeError(ModeText, err)
	}
	return p, nil
}

// MarshalBinary encodes p in the protobuf wire format, unframed.
func MarshalBinary(p *protocol.Packet) ([]byte, error) {
	m, err := toMessage(p)
	if err != nil {
		return nil, encodeError(ModeBinary, err)
	}
	out, err := binMarshal.Marshal(m)
	if err != nil {
		return nil, encodeError(ModeBinary, err)
	}
	if len(out) != binMarshal.Size(m) {
		return nil, encodeError(ModeBinary, ErrLengthMismatch)
	}
	return out, nil
}

// UnmarshalBinary decodes unframed protobuf wire data. Top-level fields
// unknown to the schema are kept in Packet.Unknown.
func UnmarshalBinary(raw []byte) (*protocol.Packet, error) {
	m := dynamicpb.NewMessage(schema.packet)
	if err := binUnmarshal.Unmarshal(raw, m); err != nil {
		return nil, decodeError(ModeBinary, err)
	}
	p, err := fromMessage(m)
	if err != nil {
		return nil, decodeError(ModeBinary, err)
	}
	return p, nil
}

// Transcode converts data from one wire form to another.
func Transcode(data []byte, from, to Mode) ([]byte, error) {
	p, err := NewConverter(from).Deserialize(data)
	if err != nil {
		return nil, err
	}
	return NewConverter(to).Serialize(p)
}

// String renders p as indented JSON for logs and debugging.
func String(p *protocol.Packet) string {
	m, err := toMessage(p)
	if err != nil {
		return fmt.Sprintf("<invalid packet: %v>", err)
	}
	out, err := debugMarshal.Marshal(m)
	if err != nil {
		return fmt.Sprintf("<invalid packet: %v>", err)
	}
	return string(out)
}
