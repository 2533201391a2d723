package blob

import (
	"fmt"

	"github.com/meshvault/meshvault/ld"
)

// createHashList is the shared Put(concat(hashes)) implementation used
// by every Store backend.
func createHashList(s Store, hashes []ld.Hash) (ld.Hash, error) {
	buf := make([]byte, 0, len(hashes)*ld.HashSize)
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return s.Put(buf)
}

// readHashList is the shared Get-then-parse implementation used by
// every Store backend.
func readHashList(s Store, h ld.Hash) ([]ld.Hash, error) {
	data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if len(data)%ld.HashSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidHashList, len(data))
	}
	out := make([]ld.Hash, 0, len(data)/ld.HashSize)
	for i := 0; i+ld.HashSize <= len(data); i += ld.HashSize {
		hh, err := ld.HashFromBytes(data[i : i+ld.HashSize])
		if err != nil {
			return nil, err
		}
		out = append(out, hh)
	}
	return out, nil
}
