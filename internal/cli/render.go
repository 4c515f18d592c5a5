package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/video"
)

const (
	shortIDLen     = 8
	maxCaptionCols = 48
)

// draftLookup is the draft read renderVideos needs
type draftLookup interface {
	Get(id string) (domain.Draft, bool)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// truncate shortens s to n runes, on one line
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatSchedule(s *string) string {
	if s == nil {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return *s
	}
	return t.Local().Format("Jan 2 15:04")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(adapter.DimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return adapter.TitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func renderVideos(items []domain.VideoEntry, drafts draftLookup) string {
	if len(items) == 0 {
		return adapter.DimStyle.Render("No videos yet") + "\n"
	}

	t := newTable("", "#", "Platform", "ID", "Scheduled", "Description")
	for _, e := range items {
		marker := ""
		if d, ok := drafts.Get(e.ID); ok && d.IsDirty {
			marker = adapter.AccentStyle.Render(adapter.DirtyChar)
		}
		t.Row(
			marker,
			fmt.Sprintf("%d", e.VideoNumber),
			adapter.PlatformBadge(e.Platform),
			shortID(e.ID),
			formatSchedule(e.ScheduledTime),
			truncate(e.Description, maxCaptionCols),
		)
	}
	return t.Render() + "\n"
}

func renderVideo(e domain.VideoEntry, d domain.Draft, hasDraft bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", adapter.PlatformBadge(e.Platform), adapter.TitleStyle.Render(fmt.Sprintf("#%d", e.VideoNumber)))
	fmt.Fprintf(&b, "  id          %s\n", e.ID)
	fmt.Fprintf(&b, "  created     %s\n", e.CreatedAt)
	if e.UpdatedAt != nil {
		fmt.Fprintf(&b, "  updated     %s\n", *e.UpdatedAt)
	}
	fmt.Fprintf(&b, "  scheduled   %s\n", formatSchedule(e.ScheduledTime))
	fmt.Fprintf(&b, "\n%s\n", e.Description)
	if e.YouTubeDescription != nil {
		fmt.Fprintf(&b, "\n%s\n%s\n", adapter.SubtitleStyle.Render("YouTube description"), *e.YouTubeDescription)
	}

	if hasDraft {
		fmt.Fprintf(&b, "\n%s\n", adapter.AccentStyle.Render(adapter.DirtyChar+" Unsaved changes"))
		if d.DescriptionSet {
			fmt.Fprintf(&b, "  description %s\n", d.Description)
		}
		if d.YouTubeDescription != nil {
			fmt.Fprintf(&b, "  youtube     %s\n", *d.YouTubeDescription)
		}
		if d.ScheduledTime != nil {
			fmt.Fprintf(&b, "  scheduled   %s\n", formatSchedule(d.ScheduledTime))
		}
	}
	return b.String()
}

func renderDrafts(drafts []domain.Draft, videos *video.Service) string {
	t := newTable("ID", "Platform", "Description", "Scheduled")
	for _, d := range drafts {
		platform := adapter.DimStyle.Render("?")
		if e, _, ok := videos.CachedVideo(d.ID); ok {
			platform = adapter.PlatformBadge(e.Platform)
		}
		desc := adapter.DimStyle.Render("unchanged")
		if d.DescriptionSet {
			desc = truncate(d.Description, maxCaptionCols)
		}
		t.Row(shortID(d.ID), platform, desc, formatSchedule(d.ScheduledTime))
	}
	return t.Render() + "\n"
}

func renderSearch(results []video.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s %s %s\n",
			adapter.DimStyle.Render(shortID(r.Entry.ID)),
			adapter.TitleStyle.Render(fmt.Sprintf("#%d", r.Entry.VideoNumber)),
			highlight(r.Entry.Description, r.MatchedIndexes),
		)
	}
	return b.String()
}

// highlight renders the bytes at idx in the accent color. Indexes refer to
// the lowercased text; they are ignored when lowercasing changed its length.
func highlight(s string, idx []int) string {
	if len(idx) == 0 || len(strings.ToLower(s)) != len(s) {
		return s
	}
	hit := make(map[int]bool, len(idx))
	for _, i := range idx {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(adapter.AccentStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
