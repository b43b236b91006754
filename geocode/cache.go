package geocode

import (
	"context"
	"fmt"
	"time"
)

const cacheExpiry = time.Hour

type cacheEntry struct {
	place    *Place
	cachedAt time.Time
}

// CachedClient wraps Client with an in-memory cache keyed by coordinates
// rounded to 3 decimals (~110m). Not safe for concurrent use; the location
// tracker loop is the only caller.
type CachedClient struct {
	client  *Client
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCachedClient(client *Client) *CachedClient {
	return &CachedClient{
		client:  client,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lng)
}

func (c *CachedClient) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	key := cacheKey(lat, lng)
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.cachedAt) < cacheExpiry {
		return entry.place, nil
	}

	place, err := c.client.Reverse(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	c.entries[key] = cacheEntry{place: place, cachedAt: c.now()}
	return place, nil
}
