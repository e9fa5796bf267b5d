package repositories

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKeyValueRepository keeps values in process memory. Used by tests and the --memory terminal mode.
type MemoryKeyValueRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryKeyValueRepository() *MemoryKeyValueRepository {
	return &MemoryKeyValueRepository{
		values: make(map[string][]byte),
	}
}

func (r *MemoryKeyValueRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("key is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (r *MemoryKeyValueRepository) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	r.values[key] = stored
	return nil
}

func (r *MemoryKeyValueRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
