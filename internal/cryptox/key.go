package cryptox

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the length of a field key in bytes (AES-256).
const KeySize = 32

// ErrInvalidKey is returned by ParseKey for input that is not exactly
// KeySize hex-encoded bytes.
var ErrInvalidKey = errors.New("invalid key")

// Key is the symmetric, password-derived field key. It is a value type: it is
// copied, never mutated in place, so one snapshot can be shared by concurrent
// requests of the same session.
type Key [KeySize]byte

// String returns the lowercase hex form used by the key cookie.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether k is the zero key, which is never a derived key in
// practice and marks "no key resolved".
func (k Key) IsZero() bool {
	return k == Key{}
}

// ParseKey decodes the hex form produced by Key.String.
func ParseKey(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return k, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), KeySize)
	}
	copy(k[:], raw)
	return k, nil
}
