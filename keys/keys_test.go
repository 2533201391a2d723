package keys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/keys"
)

func TestGenerateSignVerify(t *testing.T) {
	pk, sk, err := keys.Generate()
	require.NoError(t, err)
	require.Equal(t, pk, sk.Public())

	msg := []byte("bucket manifest bytes")
	sig := sk.Sign(msg)
	require.True(t, pk.Verify(msg, sig))
	require.False(t, pk.Verify(append(msg, 0), sig))
}

func TestPublicKeyHexRoundTrip(t *testing.T) {
	pk, _, err := keys.Generate()
	require.NoError(t, err)

	s := pk.String()
	require.Len(t, s, 64)

	parsed, err := keys.PublicKeyFromHex(s)
	require.NoError(t, err)
	require.Equal(t, pk, parsed)
}

func TestSecretKeyPEMRoundTrip(t *testing.T) {
	_, sk, err := keys.Generate()
	require.NoError(t, err)

	pemBytes := sk.MarshalPEM()
	parsed, err := keys.ParseSecretKeyPEM(pemBytes)
	require.NoError(t, err)
	require.Equal(t, sk, parsed)
}

func TestX25519ConversionAgreement(t *testing.T) {
	pkA, skA, err := keys.Generate()
	require.NoError(t, err)
	pkB, skB, err := keys.Generate()
	require.NoError(t, err)

	xPrivA, err := skA.ToX25519()
	require.NoError(t, err)
	xPubB, err := pkB.ToX25519()
	require.NoError(t, err)

	xPrivB, err := skB.ToX25519()
	require.NoError(t, err)
	xPubA, err := pkA.ToX25519()
	require.NoError(t, err)

	sharedAB, err := xPrivA.ECDH(xPubB)
	require.NoError(t, err)
	sharedBA, err := xPrivB.ECDH(xPubA)
	require.NoError(t, err)

	require.Equal(t, sharedAB, sharedBA)
}

func TestLessOrdersLexByBytes(t *testing.T) {
	a := keys.PublicKey{0x01}
	b := keys.PublicKey{0x02}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}
