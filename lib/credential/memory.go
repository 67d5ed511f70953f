// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import "sync"

// MemoryStore keeps the credential in memory.
type MemoryStore struct {
	mu         sync.Mutex
	credential *Credential
	saves      int
	clears     int
}

// NewMemoryStore returns a store holding initial, which may be nil.
func NewMemoryStore(initial *Credential) *MemoryStore {
	store := &MemoryStore{}
	if initial != nil {
		copied := *initial
		store.credential = &copied
	}
	return store
}

func (store *MemoryStore) Load() (*Credential, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.credential == nil {
		return nil, false
	}
	copied := *store.credential
	return &copied, true
}

func (store *MemoryStore) Save(credential Credential) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.credential = &credential
	store.saves++
	return nil
}

func (store *MemoryStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.credential = nil
	store.clears++
	return nil
}

// Counts reports how many times Save and Clear have been called.
func (store *MemoryStore) Counts() (saves, clears int) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saves, store.clears
}
