package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleancity/complaint-server/internal/codec"
	"github.com/cleancity/complaint-server/internal/errs"
)

// TestRoundTrip verifies decode(encode(v)) == v for a range of JSON shapes.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   any
	}{
		{"string slice", []any{"a.jpg", "b.jpg", "c.jpg"}},
		{"nested map", map[string]any{
			"device": "android",
			"gps":    map[string]any{"lat": 12.97, "lng": 77.59},
			"tags":   []any{"overflow", "roadside"},
		}},
		{"empty map", map[string]any{}},
		{"empty slice", []any{}},
		{"scalars", map[string]any{"n": float64(42), "b": true, "s": "x", "nil": nil}},
		{"unicode", map[string]any{"note": "кошик переповнений — вул. Головна"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := codec.Encode(tc.in)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			var out any
			require.NoError(t, codec.Decode(data, &out))
			assert.Equal(t, tc.in, out)
		})
	}
}

func TestRoundTripStruct(t *testing.T) {
	type meta struct {
		Device   string  `json:"device"`
		Accuracy float64 `json:"accuracy"`
	}
	in := meta{Device: "ios", Accuracy: 4.5}

	data, err := codec.Encode(in)
	require.NoError(t, err)

	var out meta
	require.NoError(t, codec.Decode(data, &out))
	assert.Equal(t, in, out)
}

func TestDecodeCorruptBytes(t *testing.T) {
	var out any
	err := codec.Decode([]byte("definitely not gzip"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDecode)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := codec.Encode(map[string]any{"k": "a fairly long value to compress"})
	require.NoError(t, err)

	var out any
	err = codec.Decode(data[:len(data)/2], &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDecode)
}

func TestDecodeWrongPayload(t *testing.T) {
	// Valid gzip wrapping invalid JSON must still fail with ErrDecode.
	data, err := codec.EncodeString("{not json")
	require.NoError(t, err)

	var out any
	err = codec.Decode(data, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDecode)
}

func TestEncodeUnserializable(t *testing.T) {
	_, err := codec.Encode(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEncode)
}

func TestStringRoundTrip(t *testing.T) {
	const s = "plain text payload, no JSON framing"
	data, err := codec.EncodeString(s)
	require.NoError(t, err)

	out, err := codec.DecodeString(data)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}
