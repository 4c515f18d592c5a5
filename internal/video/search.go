package video

import (
	"strings"

	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/sahilm/fuzzy"
)

// SearchResult is one matching entry with the matched character positions
// in its description
type SearchResult struct {
	Entry          domain.VideoEntry
	MatchedIndexes []int
	Score          int
}

// entryIndex implements fuzzy.Source over entry descriptions
type entryIndex struct {
	entries []domain.VideoEntry
	lower   []string
}

func newEntryIndex(entries []domain.VideoEntry) *entryIndex {
	idx := &entryIndex{entries: entries, lower: make([]string, len(entries))}
	for i, e := range entries {
		idx.lower[i] = strings.ToLower(searchText(e))
	}
	return idx
}

func (idx *entryIndex) String(i int) string { return idx.lower[i] }
func (idx *entryIndex) Len() int            { return len(idx.entries) }

// searchText is the description, plus the YouTube description when set
func searchText(e domain.VideoEntry) string {
	if e.YouTubeDescription != nil && *e.YouTubeDescription != "" {
		return e.Description + " " + *e.YouTubeDescription
	}
	return e.Description
}

// Search ranks cached entries of p by how well their descriptions match
// query. Only cached data is searched.
func (s *Service) Search(p domain.Platform, query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	entries, _, ok := s.CachedList(p)
	if !ok || len(entries) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), newEntryIndex(entries))

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Entry:          entries[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	s.logger.Debug("searched cached videos", "platform", p, "query", query, "results", len(results))
	return results
}
