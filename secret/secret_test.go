package secret_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/secret"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	ct, err := s.Encrypt(plaintext)
	require.NoError(t, err)

	got, err := s.Decrypt(ct)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestExtractPlaintextHash(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)

	plaintext := []byte("node tree bytes")
	ct, err := s.Encrypt(plaintext)
	require.NoError(t, err)

	h, err := s.ExtractPlaintextHash(ct)
	require.NoError(t, err)
	require.Equal(t, ld.SumHash(plaintext), h)
}

func TestFlippedByteFailsDecrypt(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)

	ct, err := s.Encrypt([]byte("payload"))
	require.NoError(t, err)

	for i := range ct {
		corrupt := append([]byte(nil), ct...)
		corrupt[i] ^= 0xFF
		_, err := s.Decrypt(corrupt)
		require.ErrorIs(t, err, secret.ErrDecryptFailed, "byte %d", i)
	}
}

func TestWrongKeyFailsDecrypt(t *testing.T) {
	s1, err := secret.Generate()
	require.NoError(t, err)
	s2, err := secret.Generate()
	require.NoError(t, err)

	ct, err := s1.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = s2.Decrypt(ct)
	require.ErrorIs(t, err, secret.ErrDecryptFailed)
}
