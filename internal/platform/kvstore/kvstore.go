// Package kvstore provides the durable client-local key-value store the
// consent manager persists into. Backends: memory, a JSON file, and Redis.
package kvstore

import (
	"context"
	"sync"

	"pawty/internal/sentinel"
)

//go:generate mockgen -source=kvstore.go -destination=mocks/mocks.go -package=mocks KV

// KV is a flat string store. Get returns sentinel.ErrNotFound for missing
// keys. SetMany and Delete apply all keys as one replacement.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Memory is an in-process KV for tests and single-node development.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return v, nil
}

func (m *Memory) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Namespaced prefixes every key so several clients can share one backend.
type Namespaced struct {
	kv     KV
	prefix string
}

// WithNamespace scopes kv to keys starting with namespace + ":".
func WithNamespace(kv KV, namespace string) *Namespaced {
	return &Namespaced{kv: kv, prefix: namespace + ":"}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *Namespaced) SetMany(ctx context.Context, values map[string]string) error {
	scoped := make(map[string]string, len(values))
	for k, v := range values {
		scoped[n.prefix+k] = v
	}
	return n.kv.SetMany(ctx, scoped)
}

func (n *Namespaced) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = n.prefix + k
	}
	return n.kv.Delete(ctx, scoped...)
}
