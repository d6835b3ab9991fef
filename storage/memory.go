package storage

import (
	"fmt"
	"sync"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

// MemoryKeyStorage is the in-memory reference backend: mutex-guarded
// maps with copy-in/copy-out semantics. State is lost when the process
// exits.
type MemoryKeyStorage struct {
	mu         sync.RWMutex
	identities map[string][]byte
	sessions   map[string][]byte
}

// NewMemoryKeyStorage creates an empty in-memory store.
func NewMemoryKeyStorage() *MemoryKeyStorage {
	return &MemoryKeyStorage{
		identities: make(map[string][]byte),
		sessions:   make(map[string][]byte),
	}
}

// StoreIdentity saves a 32-byte identity key under id.
func (m *MemoryKeyStorage) StoreIdentity(key []byte, id string) error {
	if len(key) != IdentityKeyLen {
		return fmt.Errorf("%w: identity key must be %d bytes, got %d",
			ErrInvalidParameter, IdentityKeyLen, len(key))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.identities[id]; ok {
		crypto.ZeroBytes(prior)
	}
	m.identities[id] = append([]byte(nil), key...)
	return nil
}

// LoadIdentity returns a copy of the identity key stored under id.
func (m *MemoryKeyStorage) LoadIdentity(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.identities[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown identity %q", ErrInvalidParameter, id)
	}
	return append([]byte(nil), key...), nil
}

// DeleteIdentity removes and wipes the identity stored under id.
func (m *MemoryKeyStorage) DeleteIdentity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.identities[id]; ok {
		crypto.ZeroBytes(prior)
		delete(m.identities, id)
	}
	return nil
}

// ListIdentities returns all identity identifiers.
func (m *MemoryKeyStorage) ListIdentities() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.identities))
	for id := range m.identities {
		ids = append(ids, id)
	}
	return ids, nil
}

// HasIdentity reports whether an identity is stored under id.
func (m *MemoryKeyStorage) HasIdentity(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.identities[id]
	return ok, nil
}

// StoreSession saves a session blob under id.
func (m *MemoryKeyStorage) StoreSession(data []byte, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.sessions[id]; ok {
		crypto.ZeroBytes(prior)
	}
	m.sessions[id] = append([]byte(nil), data...)
	return nil
}

// LoadSession returns a copy of the session blob stored under id.
func (m *MemoryKeyStorage) LoadSession(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session %q", ErrInvalidParameter, id)
	}
	return append([]byte(nil), data...), nil
}

// DeleteSession removes and wipes the session blob stored under id.
func (m *MemoryKeyStorage) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.sessions[id]; ok {
		crypto.ZeroBytes(prior)
		delete(m.sessions, id)
	}
	return nil
}

// ListSessions returns all session identifiers.
func (m *MemoryKeyStorage) ListSessions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// HasSession reports whether a session blob is stored under id.
func (m *MemoryKeyStorage) HasSession(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[id]
	return ok, nil
}
