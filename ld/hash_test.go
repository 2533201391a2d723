package ld_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/ld"
)

func TestSumHashDeterministic(t *testing.T) {
	b := []byte("hello, bucket")
	h1 := ld.SumHash(b)
	h2 := ld.SumHash(b)
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, ld.SumHash([]byte("hello, buckeT")))
}

func TestHashFromBytesShort(t *testing.T) {
	_, err := ld.HashFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ld.ErrShortHash)
}

func TestLinkEqual(t *testing.T) {
	h := ld.SumHash([]byte("x"))
	a := ld.NewRawLink(h)
	b := ld.NewRawLink(h)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(ld.NewCBORLink(h)))
}

func TestCBORRoundTripHash(t *testing.T) {
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)

	link := ld.NewRawLink(ld.SumHash([]byte("payload")))
	b, err := codec.Marshal(link)
	require.NoError(t, err)

	var out ld.Link
	require.NoError(t, codec.Unmarshal(b, &out))
	require.True(t, link.Equal(out))
}
