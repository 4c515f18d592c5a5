package drafts

import (
	"testing"

	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.Open("", "")
	require.NoError(t, err)
	return Open(db, nil)
}

func TestUpdateMergesFields(t *testing.T) {
	s := newStore(t)

	_, err := s.Update("x", domain.DraftPatch{Description: strPtr("a")})
	require.NoError(t, err)
	merged, err := s.Update("x", domain.DraftPatch{YouTubeDescription: strPtr("b")})
	require.NoError(t, err)

	assert.Equal(t, "a", merged.Description)
	require.NotNil(t, merged.YouTubeDescription)
	assert.Equal(t, "b", *merged.YouTubeDescription)
	assert.True(t, merged.IsDirty)

	got, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, merged, got)
	assert.Len(t, s.All(), 1)
}

func TestUpdateCreatesWithEmptyDescription(t *testing.T) {
	s := newStore(t)
	d, err := s.Update("x", domain.DraftPatch{ScheduledTime: strPtr("2025-01-01T10:00:00Z")})
	require.NoError(t, err)
	assert.Equal(t, "", d.Description)
	assert.False(t, d.DescriptionSet)
	assert.Nil(t, d.YouTubeDescription)
	assert.True(t, d.IsDirty)

	req := d.UpdateRequest()
	assert.Nil(t, req.Description)
	require.NotNil(t, req.ScheduledTime)
	assert.Equal(t, "2025-01-01T10:00:00Z", *req.ScheduledTime)
}

func TestUpdateRecordsDescriptionEdit(t *testing.T) {
	s := newStore(t)
	_, _ = s.Update("x", domain.DraftPatch{Description: strPtr("")})
	d, _ := s.Update("x", domain.DraftPatch{YouTubeDescription: strPtr("yt")})
	assert.True(t, d.DescriptionSet)

	req := d.UpdateRequest()
	require.NotNil(t, req.Description)
	assert.Equal(t, "", *req.Description)
}

func TestRestoreMarksOlderDescriptionsSet(t *testing.T) {
	db, err := store.Open("", "")
	require.NoError(t, err)
	require.NoError(t, db.SaveSnapshot(SnapshotKey, map[string]any{
		"drafts": map[string]any{
			"x": map[string]any{"id": "x", "description": "caption", "isDirty": true},
			"y": map[string]any{"id": "y", "description": "", "youtube_description": "yt", "isDirty": true},
		},
	}))

	s := Open(db, nil)
	x, _ := s.Get("x")
	assert.True(t, x.DescriptionSet)
	y, _ := s.Get("y")
	assert.False(t, y.DescriptionSet)
}

func TestUpdateLastWriteWins(t *testing.T) {
	s := newStore(t)
	_, _ = s.Update("x", domain.DraftPatch{Description: strPtr("first")})
	d, _ := s.Update("x", domain.DraftPatch{Description: strPtr("second")})
	assert.Equal(t, "second", d.Description)
}

func TestClearRemovesOnlyThatDraft(t *testing.T) {
	s := newStore(t)
	_, _ = s.Update("x", domain.DraftPatch{Description: strPtr("a")})
	_, _ = s.Update("x", domain.DraftPatch{YouTubeDescription: strPtr("b")})
	_, _ = s.Update("y", domain.DraftPatch{Description: strPtr("other")})

	require.NoError(t, s.Clear("x"))

	_, ok := s.Get("x")
	assert.False(t, ok)
	y, ok := s.Get("y")
	require.True(t, ok)
	assert.Equal(t, "other", y.Description)

	// Missing ids are a no-op
	assert.NoError(t, s.Clear("missing"))
}

func TestClearAll(t *testing.T) {
	s := newStore(t)
	_, _ = s.Update("x", domain.DraftPatch{Description: strPtr("a")})
	_, _ = s.Update("y", domain.DraftPatch{Description: strPtr("b")})

	require.NoError(t, s.ClearAll())
	assert.Empty(t, s.All())
	assert.False(t, s.HasDirty())
}

func TestHasDirty(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.HasDirty())

	_, err := s.Update("x", domain.DraftPatch{})
	require.NoError(t, err)
	assert.True(t, s.HasDirty())
}

func TestAllIsSortedByID(t *testing.T) {
	s := newStore(t)
	for _, id := range []string{"c", "a", "b"} {
		_, _ = s.Update(id, domain.DraftPatch{})
	}
	var ids []string
	for _, d := range s.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestActivePlatform(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, domain.PlatformTikTok, s.ActivePlatform())

	require.NoError(t, s.SetActivePlatform(domain.PlatformYouTube))
	assert.Equal(t, domain.PlatformYouTube, s.ActivePlatform())
}

func TestDraftsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(dir, "https://api.example.com")
	require.NoError(t, err)
	s := Open(db, nil)
	_, err = s.Update("x", domain.DraftPatch{Description: strPtr("caption")})
	require.NoError(t, err)
	require.NoError(t, s.SetActivePlatform(domain.PlatformInstagram))
	require.NoError(t, db.Close())

	db, err = store.Open(dir, "https://api.example.com")
	require.NoError(t, err)
	defer db.Close()

	restored := Open(db, nil)
	d, ok := restored.Get("x")
	require.True(t, ok)
	assert.Equal(t, "caption", d.Description)
	assert.True(t, d.IsDirty)
	assert.Equal(t, domain.PlatformInstagram, restored.ActivePlatform())
}

func TestFilter(t *testing.T) {
	s := newStore(t)
	_, _ = s.Update("a", domain.DraftPatch{Description: strPtr("Beach sunset timelapse")})
	_, _ = s.Update("b", domain.DraftPatch{Description: strPtr("Gym routine")})
	_, _ = s.Update("c", domain.DraftPatch{Description: strPtr("sunset")})

	got := s.Filter("SUNSET")
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	assert.Len(t, s.Filter("  "), 3)
	assert.Empty(t, s.Filter("podcast"))
}
