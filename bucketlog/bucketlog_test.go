package bucketlog_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/ld"
)

func link(s string) ld.Link {
	return ld.NewCBORLink(ld.SumHash([]byte(s)))
}

func TestAppendGenesisThenChild(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	require.False(t, l.Exists(id))

	genesis := link("genesis")
	require.NoError(t, l.Append(id, "photos", genesis, nil, 0, false))
	require.True(t, l.Exists(id))

	h, err := l.Height(id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), h)

	child := link("child")
	require.NoError(t, l.Append(id, "photos", child, &genesis, 1, false))

	h, err = l.Height(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), h)

	heads, err := l.Heads(id, 1)
	require.NoError(t, err)
	require.Equal(t, []ld.Link{child}, heads)
}

func TestAppendRejectsBadPrevious(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	genesis := link("genesis")
	require.NoError(t, l.Append(id, "b", genesis, nil, 0, false))

	unrelated := link("unrelated")
	err := l.Append(id, "b", link("child"), &unrelated, 1, false)
	require.ErrorIs(t, err, bucketlog.ErrInvalidAppend)
}

func TestAppendRejectsNonZeroHeightWithoutPrevious(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	err := l.Append(id, "b", link("x"), nil, 1, false)
	require.ErrorIs(t, err, bucketlog.ErrInvalidAppend)
}

func TestAppendRejectsDuplicate(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	genesis := link("genesis")
	require.NoError(t, l.Append(id, "b", genesis, nil, 0, false))
	err := l.Append(id, "b", genesis, nil, 0, false)
	require.ErrorIs(t, err, bucketlog.ErrConflict)
}

func TestConcurrentForksProduceMultipleHeads(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	genesis := link("genesis")
	require.NoError(t, l.Append(id, "b", genesis, nil, 0, false))

	forkA := link("fork-a")
	forkB := link("fork-b")
	require.NoError(t, l.Append(id, "b", forkA, &genesis, 1, false))
	require.NoError(t, l.Append(id, "b", forkB, &genesis, 1, false))

	heads, err := l.Heads(id, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []ld.Link{forkA, forkB}, heads)
}

func TestHasReturnsHeights(t *testing.T) {
	l := bucketlog.NewMemLog()
	id := uuid.New()
	genesis := link("genesis")
	require.NoError(t, l.Append(id, "b", genesis, nil, 0, false))

	heights, err := l.Has(id, genesis)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, heights)

	heights, err = l.Has(id, link("nope"))
	require.NoError(t, err)
	require.Empty(t, heights)
}

func TestListBuckets(t *testing.T) {
	l := bucketlog.NewMemLog()
	id1 := uuid.New()
	id2 := uuid.New()
	require.NoError(t, l.Append(id1, "a", link("g1"), nil, 0, false))
	require.NoError(t, l.Append(id2, "b", link("g2"), nil, 0, false))

	buckets := l.ListBuckets()
	require.ElementsMatch(t, []uuid.UUID{id1, id2}, buckets)
}
