package secretshare_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/secret"
	"github.com/meshvault/meshvault/secretshare"
)

func TestNewRecoverRoundTrip(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)

	recipientPub, recipientSK, err := keys.Generate()
	require.NoError(t, err)

	sh, err := secretshare.New(s, recipientPub)
	require.NoError(t, err)

	got, err := sh.Recover(recipientSK)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestRecoverWithWrongKeyFails(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)

	recipientPub, _, err := keys.Generate()
	require.NoError(t, err)
	_, unrelatedSK, err := keys.Generate()
	require.NoError(t, err)

	sh, err := secretshare.New(s, recipientPub)
	require.NoError(t, err)

	_, err = sh.Recover(unrelatedSK)
	require.Error(t, err)
}

func TestShareBytesLength(t *testing.T) {
	s, err := secret.Generate()
	require.NoError(t, err)
	pub, _, err := keys.Generate()
	require.NoError(t, err)

	sh, err := secretshare.New(s, pub)
	require.NoError(t, err)
	require.Len(t, sh.Bytes(), secretshare.Size)
}
