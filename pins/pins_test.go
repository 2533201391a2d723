package pins_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/pins"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := pins.New()
	h1 := ld.SumHash([]byte("a"))
	h2 := ld.SumHash([]byte("b"))
	p.Add(h1)
	p.Add(h2)
	p.Add(h1) // duplicate, ignored

	require.Equal(t, 2, p.Len())

	blob := p.Encode()
	require.Len(t, blob, 64)

	decoded, err := pins.Decode(blob)
	require.NoError(t, err)
	require.Equal(t, []ld.Hash{h1, h2}, decoded.Hashes())
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := pins.Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, pins.ErrInvalidHashList)
}

func TestContains(t *testing.T) {
	p := pins.New()
	h := ld.SumHash([]byte("x"))
	require.False(t, p.Contains(h))
	p.Add(h)
	require.True(t, p.Contains(h))
}
