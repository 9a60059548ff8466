package cryptox

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatvault/internal/logging"
)

// Codec encrypts and decrypts single text values into the marker envelope
//
//	<Marker><hex iv>:<hex ciphertext>
//
// using AES-256-CBC with PKCS#7 padding and a fresh random IV per call.
// A Codec holds no key material and is safe for concurrent use.
type Codec struct {
	logger logging.Logger
	rand   io.Reader
}

// NewCodec returns a Codec that reports no-op and fallback paths to logger.
func NewCodec(logger logging.Logger) *Codec {
	return &Codec{logger: logger.With("module", "cryptox"), rand: rand.Reader}
}

// Encrypt seals plaintext under key.
//
// A value that is already encrypted is returned unchanged and a warning is
// logged; wrapping it a second time would make the original unreachable for
// readers that decrypt once. The only error is a failing random source.
func (c *Codec) Encrypt(ctx context.Context, plaintext string, key Key) (string, error) {
	if IsEncrypted(plaintext) {
		c.logger.Warn(ctx, "value is already encrypted, skipping")
		return plaintext, nil
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return Marker + hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt. Values without the marker are
// returned as they are, which makes the call idempotent and lets legacy
// plaintext through.
//
// Failures wrap ErrDecryption (ErrMalformedEncoding for a broken envelope) so
// callers can tell them apart from other errors with errors.Is.
func (c *Codec) Decrypt(encoded string, key Key) (string, error) {
	if !IsEncrypted(encoded) {
		return encoded, nil
	}

	ivHex, cipherHex, ok := strings.Cut(strings.TrimPrefix(encoded, Marker), ":")
	if !ok {
		return "", fmt.Errorf("%w: missing separator", ErrMalformedEncoding)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", ErrMalformedEncoding)
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad ciphertext", ErrMalformedEncoding)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}

	// CBC has no authentication; a wrong key passes the padding check about
	// once in 256 tries but practically never yields valid UTF-8 as well.
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid utf-8", ErrDecryption)
	}

	return string(plain), nil
}

// DecryptBackwardsCompatible is Decrypt for read paths: plaintext comes back
// as is, and a value that fails to decrypt is logged and returned still
// encoded instead of failing the whole read. Callers treat a result that is
// still IsEncrypted as "could not be decrypted".
func (c *Codec) DecryptBackwardsCompatible(ctx context.Context, value string, key Key) string {
	if !IsEncrypted(value) {
		return value
	}

	plain, err := c.Decrypt(value, key)
	if err != nil {
		c.logger.Warn(ctx, "could not decrypt value, returning it encoded", "error", err)
		return value
	}
	return plain
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad block length", ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
