package blob

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/meshvault/meshvault/ld"
)

// MemStore is an in-memory Store, used in tests and as the local cache
// for peers that do not need durability across restarts.
type MemStore struct {
	mu   sync.RWMutex
	data map[ld.Hash][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[ld.Hash][]byte)}
}

func (s *MemStore) Put(data []byte) (ld.Hash, error) {
	h := ld.SumHash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[h]; !ok {
		cp := append([]byte(nil), data...)
		s.data[h] = cp
	}
	return h, nil
}

func (s *MemStore) Get(h ld.Hash) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Stat(h ld.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[h]
	return ok
}

func (s *MemStore) PutStream(r io.Reader) (ld.Hash, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return ld.Hash{}, err
	}
	return s.Put(buf.Bytes())
}

func (s *MemStore) CreateHashList(hashes []ld.Hash) (ld.Hash, error) {
	return createHashList(s, hashes)
}

func (s *MemStore) ReadHashList(h ld.Hash) ([]ld.Hash, error) {
	return readHashList(s, h)
}
