package domain

import "time"

// SnapshotStore persists whole-object snapshots under a fixed key.
// Session and draft stores write their full state here after every mutation.
type SnapshotStore interface {
	// LoadSnapshot decodes the snapshot into dest. Returns false if none exists.
	LoadSnapshot(key string, dest any) (bool, error)
	SaveSnapshot(key string, value any) error
	DeleteSnapshot(key string) error
}

// QueryStore is the raw key/value backend for the remote data cache.
// Keys encode ancestry (videos:list:tiktok) so prefix deletion cascades.
type QueryStore interface {
	GetQuery(key string) ([]byte, bool)
	PutQuery(key string, data []byte) error
	DeleteQuery(key string) error
	DeleteQueryPrefix(prefix string) error
	// ScanQueries calls fn for every key with the prefix ("" = all keys)
	ScanQueries(prefix string, fn func(key string, data []byte)) error
}

// CacheMeta describes the freshness of a cached value
type CacheMeta struct {
	FetchedAt   time.Time
	StaleAfter  time.Time
	Invalidated bool
}

// Fresh reports whether the value can be used without refetching
func (m CacheMeta) Fresh(now time.Time) bool {
	return !m.Invalidated && now.Before(m.StaleAfter)
}
