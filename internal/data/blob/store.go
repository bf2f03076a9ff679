// Package blob stores class bytes by content. A Store writes each distinct
// payload once under its SHA-256 and keeps recently read payloads in memory.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/util"
)

const defaultHotBlobs = 2048

// Store is safe for concurrent use. A Store without a directory keeps every
// payload in memory for the life of the process.
type Store struct {
	dir string

	mu       sync.Mutex
	hot      *lru.Cache[string, []byte]
	hotBytes int64
	// pinned holds payloads of a memory-only store.
	pinned map[string][]byte
}

// Open returns a disk-backed store under dir holding up to hotBlobs
// payloads in memory.
func Open(dir string, hotBlobs int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "creating blob directory")
	}
	s := &Store{dir: dir}
	if err := s.initHot(hotBlobs); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	s := &Store{pinned: make(map[string][]byte)}
	_ = s.initHot(defaultHotBlobs)
	return s
}

func (s *Store) initHot(size int) error {
	if size <= 0 {
		size = defaultHotBlobs
	}
	hot, err := lru.NewWithEvict[string, []byte](size, func(_ string, b []byte) {
		s.hotBytes -= int64(len(b))
		observability.BlobStoreBytes.Sub(float64(len(b)))
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternalCompiler, "creating blob hot set")
	}
	s.hot = hot
	return nil
}

// Key returns the content address of b.
func Key(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key[:2], key[2:])
}

// Put stores b and returns its key. Storing the same bytes twice is a no-op.
func (s *Store) Put(b []byte) (string, error) {
	key := Key(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned != nil {
		if _, ok := s.pinned[key]; !ok {
			s.pinned[key] = b
		}
		return key, nil
	}
	p := s.path(key)
	if _, err := os.Stat(p); err == nil {
		s.remember(key, b)
		return key, nil
	}
	tmp := p + ".tmp"
	if err := util.WriteFileWithDirs(tmp, b, 0o644); err != nil {
		return "", errors.Wrap(err, errors.CodeIO, "writing blob")
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", errors.Wrap(err, errors.CodeIO, "committing blob")
	}
	s.remember(key, b)
	return key, nil
}

func (s *Store) remember(key string, b []byte) {
	if s.hot.Contains(key) {
		return
	}
	s.hot.Add(key, b)
	s.hotBytes += int64(len(b))
	observability.BlobStoreBytes.Add(float64(len(b)))
}

// Get returns the bytes stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned != nil {
		b, ok := s.pinned[key]
		if !ok {
			return nil, errors.Newf(errors.CodeNotFound, "blob %s not found", key)
		}
		return b, nil
	}
	if b, ok := s.hot.Get(key); ok {
		return b, nil
	}
	if len(key) < 3 {
		return nil, errors.Newf(errors.CodeNotFound, "blob %q not found", key)
	}
	b, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, errors.Newf(errors.CodeNotFound, "blob %s not found", key)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "reading blob")
	}
	if Key(b) != key {
		return nil, errors.Newf(errors.CodeCorrupt, "blob %s does not match its content", key)
	}
	s.remember(key, b)
	return b, nil
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned != nil {
		_, ok := s.pinned[key]
		return ok
	}
	if s.hot.Contains(key) {
		return true
	}
	if len(key) < 3 {
		return false
	}
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Prune deletes every stored payload whose key keep rejects.
func (s *Store) Prune(keep func(key string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	if s.pinned != nil {
		for key := range s.pinned {
			if !keep(key) {
				delete(s.pinned, key)
				removed++
			}
		}
		return removed, nil
	}
	err := filepath.WalkDir(s.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(s.dir, p)
		if relErr != nil {
			return relErr
		}
		key := filepath.Dir(rel) + filepath.Base(rel)
		if len(key) != sha256.Size*2 || keep(key) {
			return nil
		}
		s.hot.Remove(key)
		if err := os.Remove(p); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, errors.Wrap(err, errors.CodeIO, "pruning blobs")
	}
	return removed, nil
}

// HotBytes is the size of the in-memory hot set.
func (s *Store) HotBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hotBytes
}
