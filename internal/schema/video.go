package schema

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mmcdole/reelctl/internal/domain"
)

// VideoEntry validates a single video entry response
func VideoEntry(v any) (*domain.VideoEntry, error) {
	c := &checker{}
	e := c.videoEntry(v)
	if err := c.err("video entry"); err != nil {
		return nil, err
	}
	return e, nil
}

// VideoList validates a paginated video list response.
// An empty items array is valid.
func VideoList(v any) (*domain.VideoPage, error) {
	c := &checker{}
	obj, ok := c.object(v)
	if !ok {
		return nil, c.err("video list")
	}

	page := &domain.VideoPage{
		Total: c.requireInt(obj, "total"),
		Page:  c.requireInt(obj, "page"),
		Size:  c.requireInt(obj, "size"),
	}

	if items, ok := c.requireArray(obj, "items"); ok {
		page.Items = make([]domain.VideoEntry, 0, len(items))
		for i, raw := range items {
			c.nested(fmt.Sprintf("items[%d]", i), func(sub *checker) {
				if e := sub.videoEntry(raw); e != nil && len(sub.violations) == 0 {
					page.Items = append(page.Items, *e)
				}
			})
		}
	}

	if err := c.err("video list"); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *checker) videoEntry(v any) *domain.VideoEntry {
	obj, ok := c.object(v)
	if !ok {
		return nil
	}

	e := &domain.VideoEntry{
		ID:                 c.requireString(obj, "id"),
		CreatedAt:          c.requireString(obj, "created_at"),
		UpdatedAt:          c.optionalString(obj, "updated_at"),
		VideoNumber:        c.requireInt(obj, "video_number"),
		Description:        c.requireString(obj, "description"),
		YouTubeDescription: c.optionalString(obj, "youtube_description"),
		ScheduledTime:      c.optionalString(obj, "scheduled_time"),
	}

	if id, isString := obj["id"].(string); isString {
		if _, err := uuid.Parse(id); err != nil {
			c.fail("id", "must be a UUID")
		}
	}

	if p := c.requireString(obj, "platform"); p != "" || hasString(obj, "platform") {
		e.Platform = domain.Platform(p)
		if !e.Platform.Valid() {
			c.fail("platform", fmt.Sprintf("unknown platform %q", p))
		}
	}

	return e
}

func hasString(obj map[string]any, field string) bool {
	_, ok := obj[field].(string)
	return ok
}
