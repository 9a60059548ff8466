// Package cryptox implements field-level encryption at rest: password based
// key derivation, the marker-prefixed AES-256-CBC envelope, plaintext/ciphertext
// state detection and the legacy-tolerant decoder used on every read path.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// KDFIterations is the PBKDF2 round count. Changing it changes every derived
// key and makes previously written data unreadable.
const KDFIterations = 10000

// DeriveKey turns a user's password and stable salt (the account email) into
// the field key using PBKDF2-HMAC-SHA256.
//
// The derivation is deterministic so that any new session can decrypt data
// written by an earlier one without storing key material anywhere. There is no
// error path: an empty password still yields a key, password policy belongs to
// the sign-up flow.
//
// Example:
//
//	key := cryptox.DeriveKey("correct horse battery staple", "user@example.com")
//	fmt.Println(key) // 64 hex characters
func DeriveKey(password, salt string) Key {
	var k Key
	copy(k[:], pbkdf2.Key([]byte(password), []byte(salt), KDFIterations, KeySize, sha256.New))
	return k
}
