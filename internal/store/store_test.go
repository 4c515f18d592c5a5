package store

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openBoth(t *testing.T) map[string]*Store {
	t.Helper()
	disk, err := Open(t.TempDir(), "https://api.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })

	mem, err := Open("", "")
	require.NoError(t, err)

	return map[string]*Store{"bolt": disk, "memory": mem}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for name, s := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			var got snapshot
			ok, err := s.LoadSnapshot("missing", &got)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.SaveSnapshot("auth-storage", snapshot{Name: "a", Count: 2}))
			ok, err = s.LoadSnapshot("auth-storage", &got)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, snapshot{Name: "a", Count: 2}, got)

			require.NoError(t, s.DeleteSnapshot("auth-storage"))
			ok, err = s.LoadSnapshot("auth-storage", &got)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "https://api.example.com/")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot("draft-storage", snapshot{Name: "draft", Count: 1}))
	require.NoError(t, s.Close())

	// Trailing slash and case do not change the database location
	reopened, err := Open(dir, "HTTPS://api.example.com")
	require.NoError(t, err)
	defer reopened.Close()

	var got snapshot
	ok, err := reopened.LoadSnapshot("draft-storage", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "draft", got.Name)
}

func TestSeparateServersDoNotShareState(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, "https://a.example.com")
	require.NoError(t, err)
	require.NoError(t, a.SaveSnapshot("auth-storage", snapshot{Name: "a"}))
	require.NoError(t, a.Close())

	b, err := Open(dir, "https://b.example.com")
	require.NoError(t, err)
	defer b.Close()

	var got snapshot
	ok, err := b.LoadSnapshot("auth-storage", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryPrefixDeletion(t *testing.T) {
	for name, s := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"auth:me", "videos:list:tiktok", "videos:list:instagram", "videos:detail:1"} {
				require.NoError(t, s.PutQuery(k, []byte(`{}`)))
			}

			require.NoError(t, s.DeleteQueryPrefix("videos:"))

			var keys []string
			require.NoError(t, s.ScanQueries("", func(key string, _ []byte) {
				keys = append(keys, key)
			}))
			assert.Equal(t, []string{"auth:me"}, keys)

			_, ok := s.GetQuery("videos:list:tiktok")
			assert.False(t, ok)
		})
	}
}

func TestScanQueriesWithPrefix(t *testing.T) {
	for name, s := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.PutQuery("videos:list:tiktok", []byte(`1`)))
			require.NoError(t, s.PutQuery("videos:list:youtube", []byte(`2`)))
			require.NoError(t, s.PutQuery("auth:me", []byte(`3`)))

			var keys []string
			require.NoError(t, s.ScanQueries("videos:list:", func(key string, _ []byte) {
				keys = append(keys, key)
			}))
			sort.Strings(keys)
			assert.Equal(t, []string{"videos:list:tiktok", "videos:list:youtube"}, keys)

			require.NoError(t, s.DeleteQuery("auth:me"))
			_, ok := s.GetQuery("auth:me")
			assert.False(t, ok)
		})
	}
}

func TestFailedWriteIsNotVisible(t *testing.T) {
	s, err := Open(t.TempDir(), "https://api.example.com")
	require.NoError(t, err)
	require.NoError(t, s.PutQuery("auth:me", []byte(`"old"`)))
	require.NoError(t, s.Close())

	assert.Error(t, s.PutQuery("auth:me", []byte(`"new"`)))
	assert.Error(t, s.PutQuery("videos:list:all", []byte(`[]`)))

	data, ok := s.GetQuery("auth:me")
	require.True(t, ok)
	assert.Equal(t, `"old"`, string(data))
	_, ok = s.GetQuery("videos:list:all")
	assert.False(t, ok)
}
