// Package bucketlog implements the per-bucket append-only chain graph:
// the durable record of every manifest link ever advertised for a
// bucket, indexed by height, used to compute common ancestors and
// detect concurrent forks.
package bucketlog

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault/ld"
)

// ErrConflict is returned by Append when (link, height) is already
// present for the bucket.
var ErrConflict = errors.New("bucketlog: link already recorded at this height")

// ErrInvalidAppend is returned by Append when previous does not name a
// known head at height-1, or when a non-zero height is appended with no
// previous link.
var ErrInvalidAppend = errors.New("bucketlog: previous is not a known head at height-1")

// Entry is one recorded manifest link in a bucket's chain.
type Entry struct {
	Link      ld.Link
	Previous  *ld.Link
	Height    uint64
	Name      string
	Published bool
}

// Log is the append-only chain-graph contract every backend implements.
type Log interface {
	// Exists reports whether any entry has been recorded for id.
	Exists(id uuid.UUID) bool
	// Height returns the maximum height appended for id.
	Height(id uuid.UUID) (uint64, error)
	// Heads returns the links recorded at height h — more than one iff
	// concurrent forks exist at that height.
	Heads(id uuid.UUID, h uint64) ([]ld.Link, error)
	// Has returns every height at which link appears for id.
	Has(id uuid.UUID, link ld.Link) ([]uint64, error)
	// Append records a new entry, enforcing the chain-append rules.
	Append(id uuid.UUID, name string, link ld.Link, previous *ld.Link, height uint64, published bool) error
	// ListBuckets returns every bucket id with at least one entry.
	ListBuckets() []uuid.UUID
}

// MemLog is an in-memory Log, suitable for tests and as the default
// local index (SQLite persistence of this index is out of scope).
type MemLog struct {
	mu    sync.RWMutex
	byBkt map[uuid.UUID]*bucketState
}

type bucketState struct {
	maxHeight uint64
	heights   map[uint64][]Entry
	linkSeen  map[ld.Link][]uint64
}

// NewMemLog returns an empty MemLog.
func NewMemLog() *MemLog {
	return &MemLog{byBkt: make(map[uuid.UUID]*bucketState)}
}

func (l *MemLog) Exists(id uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byBkt[id]
	return ok
}

func (l *MemLog) Height(id uuid.UUID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.byBkt[id]
	if !ok {
		return 0, nil
	}
	return b.maxHeight, nil
}

func (l *MemLog) Heads(id uuid.UUID, h uint64) ([]ld.Link, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.byBkt[id]
	if !ok {
		return nil, nil
	}
	entries := b.heights[h]
	out := make([]ld.Link, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Link)
	}
	return out, nil
}

func (l *MemLog) Has(id uuid.UUID, link ld.Link) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.byBkt[id]
	if !ok {
		return nil, nil
	}
	return append([]uint64(nil), b.linkSeen[link]...), nil
}

func (l *MemLog) Append(id uuid.UUID, name string, link ld.Link, previous *ld.Link, height uint64, published bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byBkt[id]
	if !ok {
		b = &bucketState{heights: make(map[uint64][]Entry), linkSeen: make(map[ld.Link][]uint64)}
		l.byBkt[id] = b
	}

	if previous == nil {
		if height != 0 {
			return ErrInvalidAppend
		}
	} else {
		if height == 0 {
			return ErrInvalidAppend
		}
		if !headsContain(b.heights[height-1], *previous) {
			return ErrInvalidAppend
		}
	}

	for _, e := range b.heights[height] {
		if e.Link.Equal(link) {
			return ErrConflict
		}
	}

	entry := Entry{Link: link, Previous: previous, Height: height, Name: name, Published: published}
	b.heights[height] = append(b.heights[height], entry)
	b.linkSeen[link] = append(b.linkSeen[link], height)
	if height > b.maxHeight {
		b.maxHeight = height
	}
	return nil
}

func (l *MemLog) ListBuckets() []uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(l.byBkt))
	for id := range l.byBkt {
		out = append(out, id)
	}
	return out
}

func headsContain(entries []Entry, link ld.Link) bool {
	for _, e := range entries {
		if e.Link.Equal(link) {
			return true
		}
	}
	return false
}
