// Package cache defines the keyed result store runners use to memoise node
// outputs within or across runs, together with a generic in-memory
// implementation.
package cache

import (
	"context"
	"sync"
)

// Store is an abstract keyed store. Lookup reports whether the key was
// present so callers can distinguish a cached nil from a miss.
type Store[K comparable, V any] interface {
	// Lookup returns the value stored under key, if any.
	Lookup(ctx context.Context, key K) (V, bool, error)

	// Put stores or overwrites the value under key.
	Put(ctx context.Context, key K, value V) error

	// Delete removes the value stored under key.
	Delete(ctx context.Context, key K) error
}

// Memory is a generic in-memory Store guarded by a RW mutex. It carries no
// eviction policy - callers that need one wrap or replace it.
type Memory[K comparable, V any] struct {
	mu      sync.RWMutex
	records map[K]V
}

// NewMemory creates an empty in-memory store.
func NewMemory[K comparable, V any]() *Memory[K, V] {
	return &Memory[K, V]{records: make(map[K]V)}
}

// Lookup returns the value stored under key, if any.
func (m *Memory[K, V]) Lookup(_ context.Context, key K) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	return value, ok, nil
}

// Put stores or overwrites the value under key.
func (m *Memory[K, V]) Put(_ context.Context, key K, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

// Delete removes the value stored under key.
func (m *Memory[K, V]) Delete(_ context.Context, key K) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

// Len returns the number of stored records.
func (m *Memory[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
