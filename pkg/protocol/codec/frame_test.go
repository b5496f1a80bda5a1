package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	for _, raw := range [][]byte{
		{},
		{0x00},
		{0xfb, 0xff},
		{0x08, 0x80, 0x80, 0x04, 0x10, 0x01},
	} {
		got, err := DecodeFrame(EncodeFrame(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestDecodeFrameTolerance(t *testing.T) {
	want := []byte{0xfb, 0xff, 0x01}

	tests := map[string]string{
		"plain":      "+/8B",
		"url safe":   "-_8B",
		"whitespace": "  +/8B\r\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeFrame([]byte(in))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	got, err := DecodeFrame([]byte("+/8="))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, got)

	got, err = DecodeFrame([]byte("+/8"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, got)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	for _, in := range []string{"!!!!", "A", "ab+_"} {
		_, err := DecodeFrame([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedFrame, in)
	}
}

func TestEncodeFrameIsPadded(t *testing.T) {
	assert.Equal(t, "+/8=", string(EncodeFrame([]byte{0xfb, 0xff})))
}

func TestDetectMode(t *testing.T) {
	assert.Equal(t, ModeText, DetectMode([]byte(`  {"version":65536}`)))
	assert.Equal(t, ModeBinary, DetectMode([]byte("CICAgAQ=")))
	assert.Equal(t, ModeBinary, DetectMode(nil))
}
