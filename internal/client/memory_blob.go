package client

import (
	"context"
	"io"
	"sync"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// MemoryBlobStore keeps blobs in process memory. Used by the memory
// storage driver and in tests.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.blobs[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, errors.NotFound("blob " + key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryBlobStore) Stream(ctx context.Context, key string, w io.Writer) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (m *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
