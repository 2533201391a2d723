package manifest_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
	"github.com/meshvault/meshvault/secret"
	"github.com/meshvault/meshvault/secretshare"
)

func TestGenesisEncodeDecodeRoundTrip(t *testing.T) {
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)

	owner, ownerSK, err := keys.Generate()
	require.NoError(t, err)
	s, err := secret.Generate()
	require.NoError(t, err)
	sh, err := secretshare.New(s, owner)
	require.NoError(t, err)

	m := &manifest.Manifest{
		ID:      uuid.New(),
		Name:    "photos",
		Version: manifest.Version1,
		Height:  0,
		Entry:   ld.NewRawLink(ld.SumHash([]byte("entry"))),
		Pins:    ld.NewRawLink(ld.SumHash([]byte("pins"))),
	}
	m.SetShare(manifest.Share{
		Principal: manifest.Principal{Identity: owner, Role: manifest.RoleOwner},
		Share:     sh,
	})

	require.True(t, m.IsGenesis())

	data, link, err := m.Encode(codec)
	require.NoError(t, err)
	require.Equal(t, ld.CodecCBOR, link.Codec)

	decoded, err := manifest.Decode(codec, data)
	require.NoError(t, err)
	require.Equal(t, m.ID, decoded.ID)
	require.Equal(t, m.Name, decoded.Name)

	gotShare, ok := decoded.ShareFor(owner)
	require.True(t, ok)

	recovered, err := gotShare.Share.Recover(ownerSK)
	require.NoError(t, err)
	require.Equal(t, s, recovered)
}

func TestShareForMissing(t *testing.T) {
	m := &manifest.Manifest{Shares: map[string]manifest.Share{}}
	other, _, err := keys.Generate()
	require.NoError(t, err)
	_, ok := m.ShareFor(other)
	require.False(t, ok)
}
