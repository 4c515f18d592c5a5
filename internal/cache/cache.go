// Package cache is a read-through cache of server responses. Entries keep the
// last-known-good value; invalidating one marks it stale without dropping it,
// so cache-only reads can still show something while offline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/reelctl/internal/domain"
)

// Entry is the stored form of one cached response
type Entry struct {
	Value       json.RawMessage `json:"value"`
	FetchedAt   time.Time       `json:"fetched_at"`
	StaleAfter  time.Time       `json:"stale_after"`
	Invalidated bool            `json:"invalidated,omitempty"`
}

func (e Entry) meta() domain.CacheMeta {
	return domain.CacheMeta{
		FetchedAt:   e.FetchedAt,
		StaleAfter:  e.StaleAfter,
		Invalidated: e.Invalidated,
	}
}

// Cache stores entries in a domain.QueryStore
type Cache struct {
	store  domain.QueryStore
	logger *slog.Logger
	now    func() time.Time
}

func New(store domain.QueryStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger, now: time.Now}
}

// SetClock replaces the time source
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache) entry(key string) (Entry, bool) {
	data, ok := c.store.GetQuery(key)
	if !ok {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("dropping corrupt cache entry", "key", key, "error", err)
		_ = c.store.DeleteQuery(key)
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) put(key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.store.PutQuery(key, data)
}

// Get decodes the cached value for key into dest. It returns the entry's
// freshness metadata and false when nothing usable is cached.
func (c *Cache) Get(key string, dest any) (domain.CacheMeta, bool) {
	e, ok := c.entry(key)
	if !ok {
		return domain.CacheMeta{}, false
	}
	if err := json.Unmarshal(e.Value, dest); err != nil {
		c.logger.Warn("cached value does not decode", "key", key, "error", err)
		return domain.CacheMeta{}, false
	}
	return e.meta(), true
}

// Meta returns freshness metadata without decoding the value
func (c *Cache) Meta(key string) (domain.CacheMeta, bool) {
	e, ok := c.entry(key)
	if !ok {
		return domain.CacheMeta{}, false
	}
	return e.meta(), true
}

// Set stores value under key, fresh for stale. The last write wins.
func (c *Cache) Set(key string, value any, stale time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	now := c.now()
	return c.put(key, Entry{Value: raw, FetchedAt: now, StaleAfter: now.Add(stale)})
}

// Invalidate marks key stale. The value is kept for cache-only reads.
func (c *Cache) Invalidate(key string) error {
	e, ok := c.entry(key)
	if !ok || e.Invalidated {
		return nil
	}
	e.Invalidated = true
	c.logger.Debug("cache invalidated", "key", key)
	return c.put(key, e)
}

// InvalidatePrefix marks every key under prefix stale
func (c *Cache) InvalidatePrefix(prefix string) error {
	var keys []string
	if err := c.store.ScanQueries(prefix, func(key string, _ []byte) {
		keys = append(keys, key)
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.Invalidate(k); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes key outright
func (c *Cache) Remove(key string) error {
	return c.store.DeleteQuery(key)
}

// RemovePrefix deletes every key under prefix
func (c *Cache) RemovePrefix(prefix string) error {
	c.logger.Debug("cache purge", "prefix", prefix)
	return c.store.DeleteQueryPrefix(prefix)
}

func (c *Cache) Clear() error {
	return c.store.DeleteQueryPrefix("")
}

// Prune deletes entries fetched more than gcAfter ago and returns how many
// were removed.
func (c *Cache) Prune(gcAfter time.Duration) (int, error) {
	cutoff := c.now().Add(-gcAfter)
	var expired []string
	err := c.store.ScanQueries("", func(key string, data []byte) {
		var e Entry
		if json.Unmarshal(data, &e) != nil || e.FetchedAt.Before(cutoff) {
			expired = append(expired, key)
		}
	})
	if err != nil {
		return 0, err
	}
	for _, k := range expired {
		if err := c.store.DeleteQuery(k); err != nil {
			return 0, err
		}
	}
	if len(expired) > 0 {
		c.logger.Debug("cache pruned", "count", len(expired))
	}
	return len(expired), nil
}

// Fetch returns the cached value for key when fresh, otherwise calls fetch
// and caches its result. When fetch fails the error is returned even if a
// stale value exists; callers that want the stale value use Get.
func Fetch[T any](
	ctx context.Context,
	c *Cache,
	key string,
	stale time.Duration,
	fetch func(ctx context.Context) (T, error),
) (T, error) {
	var cached T
	if meta, ok := c.Get(key, &cached); ok && meta.Fresh(c.now()) {
		c.logger.Debug("cache hit", "key", key)
		return cached, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Set(key, v, stale); err != nil {
		c.logger.Error("failed to cache response", "key", key, "error", err)
	}
	return v, nil
}
