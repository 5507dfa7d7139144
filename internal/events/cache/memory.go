package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryDedup is a process-local deduplicator for unit tests and single
// instance runs without redis.
type MemoryDedup struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	ttl       time.Duration
	nextSweep time.Time
}

func NewMemoryDedup(ttl time.Duration) *MemoryDedup {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryDedup{
		seen:      make(map[string]time.Time),
		ttl:       ttl,
		nextSweep: time.Now().Add(ttl),
	}
}

func (d *MemoryDedup) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if expiry, ok := d.seen[eventID]; ok && now.Before(expiry) {
		return true, nil
	}
	// Expired ids are swept at most once per ttl so the map stays bounded
	// on long redis-less runs.
	if now.After(d.nextSweep) {
		for id, expiry := range d.seen {
			if !now.Before(expiry) {
				delete(d.seen, id)
			}
		}
		d.nextSweep = now.Add(d.ttl)
	}
	d.seen[eventID] = now.Add(d.ttl)
	return false, nil
}
