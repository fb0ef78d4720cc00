package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduplicator is the process-local counterpart of AlertDeduplicator,
// used when redis is not configured.
type MemoryDeduplicator struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *MemoryDeduplicator) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if until, ok := d.expires[key]; ok && now.Before(until) {
		return false, nil
	}
	d.expires[key] = now.Add(ttl)

	for k, until := range d.expires {
		if !now.Before(until) {
			delete(d.expires, k)
		}
	}
	return true, nil
}

func (d *MemoryDeduplicator) Clear(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.expires, key)
	d.mu.Unlock()
	return nil
}
