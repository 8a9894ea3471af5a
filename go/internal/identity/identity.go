package identity

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hordle/horde/go/internal/models"
)

// Directory resolves a participant ID to display metadata. Lookups are
// best-effort and may fail independently per participant.
type Directory interface {
	DisplayInfo(ctx context.Context, participantID string) (models.DisplayInfo, error)
}

type cacheEntry struct {
	info      models.DisplayInfo
	fetchedAt time.Time
}

// CachedDirectory memoizes directory lookups for a TTL. Failed lookups
// are never cached, so a flaky directory recovers on the next query.
type CachedDirectory struct {
	inner Directory
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachedDirectory wraps a directory with a TTL cache.
func NewCachedDirectory(inner Directory, clock clockwork.Clock, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		inner:   inner,
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (d *CachedDirectory) DisplayInfo(ctx context.Context, participantID string) (models.DisplayInfo, error) {
	d.mu.RLock()
	entry, ok := d.entries[participantID]
	d.mu.RUnlock()
	if ok && d.clock.Now().Sub(entry.fetchedAt) < d.ttl {
		return entry.info, nil
	}

	info, err := d.inner.DisplayInfo(ctx, participantID)
	if err != nil {
		return models.DisplayInfo{}, err
	}

	d.mu.Lock()
	d.entries[participantID] = cacheEntry{info: info, fetchedAt: d.clock.Now()}
	d.mu.Unlock()
	return info, nil
}
