package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// EncodeFrame wraps raw binary in padded standard base64 so it can travel
// over text-only channels.
func EncodeFrame(raw []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out
}

// DecodeFrame reverses EncodeFrame. It tolerates missing padding, the
// URL-safe alphabet and surrounding whitespace.
func DecodeFrame(text []byte) ([]byte, error) {
	s := bytes.TrimSpace(text)
	s = bytes.TrimRight(s, "=")

	enc := base64.RawStdEncoding
	if bytes.ContainsAny(s, "-_") {
		enc = base64.RawURLEncoding
	}

	out := make([]byte, enc.DecodedLen(len(s)))
	n, err := enc.Decode(out, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return out[:n], nil
}

// DetectMode guesses the wire form of an inbound payload. JSON objects
// start with '{'; anything else is taken as a base64 frame.
func DetectMode(data []byte) Mode {
	s := bytes.TrimSpace(data)
	if len(s) > 0 && s[0] == '{' {
		return ModeText
	}
	return ModeBinary
}
