package voices

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/inferanki/cardspeech/internal/core"
)

// FetchFunc retrieves the provider's voice catalog.
type FetchFunc func(ctx context.Context) ([]core.Voice, error)

// snapshot is one immutable catalog value. A refresh stores a new snapshot
// wholesale; readers never observe a partially updated catalog.
type snapshot struct {
	apiKey string
	voices []core.Voice
}

// Cache is a read-mostly voice catalog cache shared across synthesis calls.
// The snapshot is keyed by API key, so changing the credential invalidates
// the cached catalog.
type Cache struct {
	current atomic.Pointer[snapshot]

	// refreshMu serializes refreshes so concurrent calls with a cold cache
	// issue a single catalog request.
	refreshMu sync.Mutex
}

// NewCache creates an empty catalog cache.
func NewCache() *Cache {
	return &Cache{}
}

// Voices returns the cached catalog for the given API key, fetching and
// replacing the snapshot when the cache is cold or the key changed.
func (c *Cache) Voices(ctx context.Context, apiKey string, fetch FetchFunc) ([]core.Voice, error) {
	if snap := c.current.Load(); snap != nil && snap.apiKey == apiKey {
		return snap.voices, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another call may have refreshed while we waited for the lock.
	if snap := c.current.Load(); snap != nil && snap.apiKey == apiKey {
		return snap.voices, nil
	}

	voices, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voice catalog: %w", err)
	}

	c.current.Store(&snapshot{apiKey: apiKey, voices: voices})

	return voices, nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}
