// Package credstore holds the single active credential of a client context.
//
// A Store is a dumb slot: it never interprets the credential it holds.
// Validity and expiry belong to the session package.
package credstore

import (
	"context"
	"sync"
)

// TokenKey is the well-known key the credential is stored under.
const TokenKey = "auth_token"

// DefaultContext is used when no context name is configured.
const DefaultContext = "default"

// Store provides credential persistence for one context.
type Store interface {
	// Store overwrites the current credential.
	Store(ctx context.Context, token string) error
	// Retrieve returns the current credential or "" when the slot is empty.
	Retrieve(ctx context.Context) (string, error)
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Store(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Retrieve(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
