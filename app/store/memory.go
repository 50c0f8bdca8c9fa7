package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ObjectStore used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	times   map[string]time.Time

	// Err, when non-nil, is returned by every operation to simulate an
	// unreachable backend.
	Err error
	// AfterPut, when set, runs after each successful Put. Tests use it to
	// interleave a racing writer between a put and its confirm read.
	AfterPut func(key string)
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		times:   make(map[string]time.Time),
	}
}

// Head returns metadata for a key without the body.
func (m *MemoryStore) Head(_ context.Context, key string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return Metadata{}, m.Err
	}
	body, ok := m.objects[key]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return Metadata{Size: int64(len(body)), LastModified: m.times[key]}, nil
}

// Get fetches the body stored at a key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	body, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// Put replaces the object at a key.
func (m *MemoryStore) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	m.objects[key] = stored
	m.times[key] = time.Now()
	hook := m.AfterPut
	m.mu.Unlock()

	// The hook runs unlocked so it can issue further store calls.
	if hook != nil {
		hook(key)
	}
	return nil
}

// Delete removes the object at a key. Deleting an absent key succeeds.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	delete(m.objects, key)
	delete(m.times, key)
	return nil
}
