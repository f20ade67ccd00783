package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps values in a map. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

// NewFromDir seeds the store from <key>.json files in dir. Missing files are
// skipped so an empty or absent directory yields an empty store.
func NewFromDir(dir string, keys []string) *MemoryStore {
	s := NewMemoryStore()
	for _, k := range keys {
		b, err := os.ReadFile(filepath.Join(dir, k+".json"))
		if err != nil {
			continue
		}
		s.data[k] = b
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
