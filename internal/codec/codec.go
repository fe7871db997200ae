// Package codec encodes and decodes message bodies for wire transport.
//
// Two modes exist. ModeLegacy is AES-CBC with a fixed all-zero IV and PKCS#7
// padding, base64 encoded; it is byte compatible with existing clients but
// deterministic and unauthenticated. ModeSealed uses XChaCha20-Poly1305 with
// a random nonce per message and should be preferred for new deployments.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a ciphertext cannot be decoded.
var ErrMalformed = errors.New("malformed ciphertext")

// Supported codec modes.
const (
	ModeLegacy = "legacy"
	ModeSealed = "sealed"
)

// Codec transforms message bodies between plaintext and their wire form.
type Codec interface {
	Encode(plaintext string) (string, error)
	Decode(ciphertext string) (string, error)
}

// ParseKey decodes a base64 key as found in configuration.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode message key: %w", err)
	}
	return key, nil
}

// New builds a codec for the given mode.
func New(mode string, key []byte) (Codec, error) {
	switch mode {
	case ModeLegacy:
		return NewLegacy(key)
	case ModeSealed, "":
		return NewSealed(key)
	default:
		return nil, fmt.Errorf("unknown codec mode %q", mode)
	}
}
