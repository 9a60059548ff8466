package cryptox

import "strings"

// Marker prefixes every encrypted field value. Hex never contains ':' so the
// remainder splits unambiguously into IV and ciphertext.
const Marker = "enc::"

// State is the derived encryption state of a stored field value.
type State int

const (
	Plaintext State = iota
	Encrypted
)

func (s State) String() string {
	if s == Encrypted {
		return "encrypted"
	}
	return "plaintext"
}

// IsEncrypted reports whether value carries the Marker prefix. It is the only
// place that decides between plaintext and ciphertext handling.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Marker)
}

// StateOf returns the State of value.
func StateOf(value string) State {
	if IsEncrypted(value) {
		return Encrypted
	}
	return Plaintext
}
