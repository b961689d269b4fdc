package kv

import (
	"context"
	"sync"
)

// Memory is a process-local backend, lost on exit. Used for tests and throw-away demos.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory makes an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns value for the key or ErrNotFound
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value, replacing the previous one
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Close does nothing, memory backend has no resources to release
func (m *Memory) Close() error { return nil }

// String returns backend name, used in logs
func (m *Memory) String() string { return "memory" }
