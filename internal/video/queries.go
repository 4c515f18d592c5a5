package video

import (
	"github.com/mmcdole/reelctl/internal/cache"
	"github.com/mmcdole/reelctl/internal/domain"
)

// Cache-only reads. These never touch the network, so they work offline and
// may return stale or invalidated data; meta says which.

// CachedList returns the last-known list for p
func (s *Service) CachedList(p domain.Platform) ([]domain.VideoEntry, domain.CacheMeta, bool) {
	var page domain.VideoPage
	meta, ok := s.cache.Get(cache.VideoListKey(p), &page)
	if !ok {
		return nil, domain.CacheMeta{}, false
	}
	return page.Items, meta, true
}

// CachedVideo returns the last-known copy of one entry, falling back to any
// cached list that contains it
func (s *Service) CachedVideo(id string) (domain.VideoEntry, domain.CacheMeta, bool) {
	var entry domain.VideoEntry
	if meta, ok := s.cache.Get(cache.VideoDetailKey(id), &entry); ok {
		return entry, meta, true
	}
	for _, p := range append([]domain.Platform{""}, domain.Platforms...) {
		items, meta, ok := s.CachedList(p)
		if !ok {
			continue
		}
		for _, e := range items {
			if e.ID == id {
				return e, meta, true
			}
		}
	}
	return domain.VideoEntry{}, domain.CacheMeta{}, false
}
