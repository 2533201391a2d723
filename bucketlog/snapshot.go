package bucketlog

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/meshvault/meshvault/ld"
)

// snapshotEntry is Entry plus the bucket it belongs to, flattened for
// CBOR encoding — Entry alone carries no bucket id.
type snapshotEntry struct {
	Bucket    uuid.UUID `cbor:"bucket"`
	Link      ld.Link   `cbor:"link"`
	Previous  *ld.Link  `cbor:"previous"`
	Height    uint64    `cbor:"height"`
	Name      string    `cbor:"name"`
	Published bool      `cbor:"published"`
}

// Dump serializes every entry in l, in height order per bucket (append
// order within one height), so Load can replay them through Append and reconstruct identical
// chain-append validation state. This is the on-disk form meshvaultctl
// persists between invocations; a SQLite-backed index is a separate
// concern left to that adapter.
func Dump(l *MemLog) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var entries []snapshotEntry
	for bucket, b := range l.byBkt {
		for h := uint64(0); h <= b.maxHeight; h++ {
			for _, e := range b.heights[h] {
				entries = append(entries, snapshotEntry{
					Bucket: bucket, Link: e.Link, Previous: e.Previous,
					Height: e.Height, Name: e.Name, Published: e.Published,
				})
			}
		}
	}
	data, err := cbor.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("bucketlog: encoding snapshot: %w", err)
	}
	return data, nil
}

// Load reconstructs a MemLog from a Dump, in recorded height order so
// every Append replays its chain-append checks exactly as it did when
// first recorded.
func Load(data []byte) (*MemLog, error) {
	var entries []snapshotEntry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("bucketlog: decoding snapshot: %w", err)
	}
	l := NewMemLog()
	for _, e := range entries {
		if err := l.Append(e.Bucket, e.Name, e.Link, e.Previous, e.Height, e.Published); err != nil {
			return nil, fmt.Errorf("bucketlog: replaying snapshot entry for %s at height %d: %w", e.Bucket, e.Height, err)
		}
	}
	return l, nil
}
