package cryptox

import (
	"errors"
	"fmt"
)

var (
	// ErrDecryption is returned when a marker-prefixed value cannot be turned
	// back into plaintext: wrong key, corrupted payload or bad padding.
	ErrDecryption = errors.New("decryption failed")

	// ErrMalformedEncoding is a kind of ErrDecryption for values that start
	// with Marker but do not hold two well-formed hex segments.
	ErrMalformedEncoding = fmt.Errorf("%w: malformed encoding", ErrDecryption)
)
