package cryptox

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "correct horse battery staple"
	testSalt     = "user@example.com"
)

// countingIV hands out the IV 00 01 02 ... 0f on every read.
type countingIV struct{}

func (countingIV) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(i)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func newTestCodec(t *testing.T) (*Codec, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewCodec(logging.NewSlogLogger(l)), &buf
}

func TestEncrypt_KnownAnswer(t *testing.T) {
	c, _ := newTestCodec(t)
	c.rand = countingIV{}
	key := DeriveKey(testPassword, testSalt)

	got, err := c.Encrypt(context.Background(), "Nyx", key)
	require.NoError(t, err)
	assert.Equal(t, Marker+"000102030405060708090a0b0c0d0e0f:05b1ccb54a74a27a7707ff030c6acc3d", got)

	got, err = c.Encrypt(context.Background(), "A shadow mage", key)
	require.NoError(t, err)
	assert.Equal(t, Marker+"000102030405060708090a0b0c0d0e0f:fd2b46bda341d4ca72d7c818ba93b963", got)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c, _ := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)

	inputs := []string{
		"a",
		"Nyx",
		"exactly sixteen!",
		"Line one\nline two\twith tabs",
		"ユニコード and emoji 🌙",
		strings.Repeat("long book entry ", 500),
		"contains : colons : everywhere",
		"",
	}

	for _, in := range inputs {
		enc, err := c.Encrypt(context.Background(), in, key)
		require.NoError(t, err)
		assert.True(t, IsEncrypted(enc))

		dec, err := c.Decrypt(enc, key)
		require.NoError(t, err)
		assert.Equal(t, in, dec)
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	c, _ := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)

	a, err := c.Encrypt(context.Background(), "same text", key)
	require.NoError(t, err)
	b, err := c.Encrypt(context.Background(), "same text", key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEncrypt_AlreadyEncryptedIsNoop(t *testing.T) {
	c, logs := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)

	once, err := c.Encrypt(context.Background(), "secret", key)
	require.NoError(t, err)

	twice, err := c.Encrypt(context.Background(), once, key)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "already encrypted")

	dec, err := c.Decrypt(twice, key)
	require.NoError(t, err)
	assert.Equal(t, "secret", dec)
}

func TestEncrypt_RandomSourceFailure(t *testing.T) {
	c, _ := newTestCodec(t)
	c.rand = failingReader{}

	_, err := c.Encrypt(context.Background(), "x", DeriveKey("p", "s"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestDecrypt_PlaintextPassthrough(t *testing.T) {
	c, _ := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)

	for _, v := range []string{"", " ", "legacy row", "enc:almost", "ENC::upper"} {
		got, err := c.Decrypt(v, key)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c, _ := newTestCodec(t)
	c.rand = countingIV{}
	k1 := DeriveKey(testPassword, testSalt)
	k2 := DeriveKey("new password", testSalt)

	enc, err := c.Encrypt(context.Background(), "Nyx", k1)
	require.NoError(t, err)

	_, err = c.Decrypt(enc, k2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryption)
	assert.NotErrorIs(t, err, ErrMalformedEncoding)
}

func TestDecrypt_Malformed(t *testing.T) {
	c, _ := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)
	iv := "000102030405060708090a0b0c0d0e0f"

	tests := []struct {
		name  string
		value string
	}{
		{name: "no separator", value: Marker + iv},
		{name: "empty body", value: Marker},
		{name: "iv not hex", value: Marker + "xyz:" + "05b1ccb54a74a27a7707ff030c6acc3d"},
		{name: "iv wrong length", value: Marker + "0001:" + "05b1ccb54a74a27a7707ff030c6acc3d"},
		{name: "cipher not hex", value: Marker + iv + ":nothex"},
		{name: "cipher empty", value: Marker + iv + ":"},
		{name: "cipher partial block", value: Marker + iv + ":05b1cc"},
		{name: "three segments", value: Marker + iv + ":05b1ccb54a74a27a7707ff030c6acc3d:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.value, key)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedEncoding)
			assert.ErrorIs(t, err, ErrDecryption, "malformed encoding is a decryption error")
		})
	}
}

func TestDecryptBackwardsCompatible(t *testing.T) {
	c, logs := newTestCodec(t)
	ctx := context.Background()
	k1 := DeriveKey("old password", testSalt)
	k2 := DeriveKey("new password", testSalt)

	t.Run("legacy plaintext", func(t *testing.T) {
		for _, v := range []string{"", " ", "written before encryption existed"} {
			assert.Equal(t, v, c.DecryptBackwardsCompatible(ctx, v, k1))
		}
	})

	t.Run("decrypts with the right key", func(t *testing.T) {
		enc, err := c.Encrypt(ctx, "A shadow mage", k1)
		require.NoError(t, err)
		assert.Equal(t, "A shadow mage", c.DecryptBackwardsCompatible(ctx, enc, k1))
	})

	t.Run("key rotation returns the marker string", func(t *testing.T) {
		enc, err := c.Encrypt(ctx, "A shadow mage", k1)
		require.NoError(t, err)

		got := c.DecryptBackwardsCompatible(ctx, enc, k2)
		assert.Equal(t, enc, got)
		assert.True(t, IsEncrypted(got))
		assert.Contains(t, logs.String(), "could not decrypt")
	})

	t.Run("malformed envelope returned unchanged", func(t *testing.T) {
		bad := Marker + "garbage"
		assert.Equal(t, bad, c.DecryptBackwardsCompatible(ctx, bad, k1))
	})
}

func TestCodec_ConcurrentUse(t *testing.T) {
	c, _ := newTestCodec(t)
	key := DeriveKey(testPassword, testSalt)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := strings.Repeat("x", i+1)
			enc, err := c.Encrypt(ctx, in, key)
			if err != nil {
				errs <- err
				return
			}
			dec, err := c.Decrypt(enc, key)
			if err != nil {
				errs <- err
				return
			}
			if dec != in {
				errs <- errors.New("round trip mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}
