package drafts

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/reelctl/internal/domain"
)

// Filter returns the drafts whose descriptions fuzzily contain query, closest
// match first. An empty query returns every draft.
func (s *Store) Filter(query string) []domain.Draft {
	all := s.All()
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	targets := make([]string, len(all))
	for i, d := range all {
		targets[i] = d.Description
		if d.YouTubeDescription != nil {
			targets[i] += " " + *d.YouTubeDescription
		}
	}

	ranks := fuzzy.RankFindFold(query, targets)
	sort.Stable(ranks)

	out := make([]domain.Draft, len(ranks))
	for i, r := range ranks {
		out[i] = all[r.OriginalIndex]
	}
	return out
}
