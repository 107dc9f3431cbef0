package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
)

var ErrObjectNotFound = errors.New("object not found")

type PutResult struct {
	Key  string
	ETag string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, reader io.Reader) (*PutResult, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryObjects is an ObjectStore held in memory.
type MemoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{objects: make(map[string][]byte)}
}

func (m *MemoryObjects) Put(_ context.Context, key string, _ string, reader io.Reader) (*PutResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return &PutResult{Key: key}, nil
}

func (m *MemoryObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Keys returns the stored keys in order.
func (m *MemoryObjects) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
