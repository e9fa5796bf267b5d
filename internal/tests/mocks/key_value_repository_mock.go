package mocks

import (
	"context"
	"sync"
)

// KeyValueRepositoryMock falls back to an in-memory map when a func is not set.
type KeyValueRepositoryMock struct {
	GetFunc    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFunc    func(ctx context.Context, key string, value []byte) error
	DeleteFunc func(ctx context.Context, key string) error

	mu     sync.Mutex
	data   map[string][]byte
	Writes []string
}

func (m *KeyValueRepositoryMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *KeyValueRepositoryMock) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.Writes = append(m.Writes, key)
	m.mu.Unlock()
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *KeyValueRepositoryMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Seed stores a raw value as if the host had written it.
func (m *KeyValueRepositoryMock) Seed(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = []byte(value)
}

// Raw returns what was last written under key.
func (m *KeyValueRepositoryMock) Raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}
