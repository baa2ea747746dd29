package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is the in-process session store, used when Redis is
// not configured and as the failover target when it is down.
type MemorySessionStore struct {
	mu         sync.Mutex
	revoked    map[string]time.Time
	rateLimits map[string]*rateLimitEntry
	now        func() time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		revoked:    make(map[string]time.Time),
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemorySessionStore) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = r.now().Add(ttl)
	r.evictLocked()
	return nil
}

func (r *MemorySessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if r.now().After(expiresAt) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (r *MemorySessionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

func (r *MemorySessionStore) ResetRateLimit(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rateLimits, key)
	return nil
}

// evictLocked drops expired entries. Callers hold r.mu.
func (r *MemorySessionStore) evictLocked() {
	now := r.now()
	for id, expiresAt := range r.revoked {
		if now.After(expiresAt) {
			delete(r.revoked, id)
		}
	}
	for key, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, key)
		}
	}
}
