package blob

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/meshvault/meshvault/ld"
)

// LocalStore is a filesystem-backed Store using the on-disk layout:
//
//	<base>/data/<hex-hash>               complete blob body
//	<base>/outboard/<hex-hash>           presence marker for verified range reads
//	<base>/partial/<hex-hash>/data       in-progress download body
//
// Outboard generation (BAO verified streaming) is out of scope; this
// store never writes an outboard file and therefore never claims
// has_outboard for any blob.
type LocalStore struct {
	base   string
	logger *zap.SugaredLogger
}

// NewLocalStore returns a LocalStore rooted at base, creating its
// subdirectories if necessary. A nil logger defaults to a no-op one.
func NewLocalStore(base string, logger *zap.SugaredLogger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	for _, sub := range []string{"data", "outboard", "partial"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("blob: create %s dir: %w", sub, err)
		}
	}
	return &LocalStore{base: base, logger: logger}, nil
}

func (s *LocalStore) dataPath(h ld.Hash) string {
	return filepath.Join(s.base, "data", hex.EncodeToString(h[:]))
}

func (s *LocalStore) partialDir(h ld.Hash) string {
	return filepath.Join(s.base, "partial", hex.EncodeToString(h[:]))
}

func (s *LocalStore) Put(data []byte) (ld.Hash, error) {
	h := ld.SumHash(data)
	if s.Stat(h) {
		return h, nil
	}
	if err := writeFileAtomic(s.dataPath(h), data); err != nil {
		return ld.Hash{}, fmt.Errorf("blob: put %s: %w", h, err)
	}
	s.logger.Debugw("blob stored", "hash", h.String(), "size", len(data))
	return h, nil
}

func (s *LocalStore) Get(h ld.Hash) ([]byte, error) {
	data, err := os.ReadFile(s.dataPath(h))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	if err != nil {
		return nil, fmt.Errorf("blob: get %s: %w", h, err)
	}
	return data, nil
}

func (s *LocalStore) Stat(h ld.Hash) bool {
	info, err := os.Stat(s.dataPath(h))
	return err == nil && !info.IsDir()
}

func (s *LocalStore) PutStream(r io.Reader) (ld.Hash, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return ld.Hash{}, fmt.Errorf("blob: put_stream: %w", err)
	}
	return s.Put(buf.Bytes())
}

func (s *LocalStore) CreateHashList(hashes []ld.Hash) (ld.Hash, error) {
	return createHashList(s, hashes)
}

func (s *LocalStore) ReadHashList(h ld.Hash) ([]ld.Hash, error) {
	return readHashList(s, h)
}

// writeFileAtomic writes data to a temp file in the same directory as
// path and renames it into place, so a concurrent Get never observes a
// partially written blob.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
