package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testKey = make([]byte, 32)

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"hello",
		"exactly sixteen!",
		strings.Repeat("long message ", 40),
		"юникод и emoji 🚀",
	}

	for _, mode := range []string{ModeLegacy, ModeSealed} {
		c, err := New(mode, testKey)
		require.NoError(t, err)

		for _, text := range texts {
			encoded, err := c.Encode(text)
			require.NoError(t, err, mode)

			decoded, err := c.Decode(encoded)
			require.NoError(t, err, mode)
			require.Equal(t, text, decoded, mode)
		}
	}
}

func TestLegacyIsDeterministic(t *testing.T) {
	req := require.New(t)
	c, err := NewLegacy(testKey)
	req.NoError(err)

	a, err := c.Encode("same text")
	req.NoError(err)
	b, err := c.Encode("same text")
	req.NoError(err)
	req.Equal(a, b)
}

func TestSealedUsesFreshNonce(t *testing.T) {
	req := require.New(t)
	c, err := NewSealed(testKey)
	req.NoError(err)

	a, err := c.Encode("same text")
	req.NoError(err)
	b, err := c.Encode("same text")
	req.NoError(err)
	req.NotEqual(a, b)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	legacy, err := NewLegacy(testKey)
	require.NoError(t, err)
	sealed, err := NewSealed(testKey)
	require.NoError(t, err)

	tampered, err := sealed.Encode("hello")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(tampered)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered = base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		codec Codec
		input string
	}{
		{"legacy not base64", legacy, "%%%"},
		{"legacy empty", legacy, ""},
		{"legacy partial block", legacy, base64.StdEncoding.EncodeToString([]byte("short"))},
		{"sealed not base64", sealed, "%%%"},
		{"sealed too short", sealed, base64.StdEncoding.EncodeToString([]byte("short"))},
		{"sealed tampered", sealed, tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Decode(tt.input)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("rot13", testKey)
	require.Error(t, err)

	_, err = New(ModeLegacy, []byte("short"))
	require.Error(t, err)

	_, err = New(ModeSealed, make([]byte, 16))
	require.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(base64.StdEncoding.EncodeToString(testKey))
	require.NoError(t, err)
	require.Len(t, key, 32)

	_, err = ParseKey("not base64!")
	require.Error(t, err)
}
