package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// MemoryStore keeps values sealed in memguard enclaves.
type MemoryStore struct {
	mu       sync.Mutex
	enclaves map[string]*memguard.Enclave
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{enclaves: make(map[string]*memguard.Enclave)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	e, ok := s.enclaves[key]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	buf, err := e.Open()
	if err != nil {
		return nil, false, fmt.Errorf("open enclave %s: %w", key, err)
	}
	defer buf.Destroy()

	out := make([]byte, buf.Size())
	copy(out, buf.Bytes())
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	// NewEnclave wipes its argument.
	src := make([]byte, len(value))
	copy(src, value)

	e := memguard.NewEnclave(src)
	if e == nil {
		return fmt.Errorf("empty value for %s", key)
	}

	s.mu.Lock()
	s.enclaves[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.enclaves, k)
	}
	return nil
}
