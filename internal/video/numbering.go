package video

import "github.com/mmcdole/reelctl/internal/domain"

// NextNumber suggests the video number for a new entry on platform p: one
// more than the highest number among entries of p, or 1 when there are none.
// The server may still reject or renumber it.
func NextNumber(entries []domain.VideoEntry, p domain.Platform) int {
	highest := 0
	for _, e := range entries {
		if e.Platform == p && e.VideoNumber > highest {
			highest = e.VideoNumber
		}
	}
	return highest + 1
}
