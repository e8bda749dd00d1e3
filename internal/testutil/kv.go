package testutil

import (
	"fmt"
	"sync"

	"postify/internal/postify"
)

// MemoryKV is an in-memory postify.KeyValueStore. Two engines sharing one
// MemoryKV behave like two runs of the app sharing one durable store.
type MemoryKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	FailPut bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut {
		return fmt.Errorf("put %s: store unavailable", key)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Raw returns the stored bytes for key without copying semantics guarantees.
func (m *MemoryKV) Raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

var _ postify.KeyValueStore = (*MemoryKV)(nil)
