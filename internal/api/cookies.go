package api

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/mmcdole/reelctl/internal/domain"
)

// CookieSnapshotKey is where the refresh cookie is persisted
const CookieSnapshotKey = "cookie-storage"

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieStore keeps the auth cookies (the refresh credential) across runs.
// Only cookies the jar would send to the auth endpoints are saved.
type cookieStore struct {
	mu        sync.Mutex
	jar       *cookiejar.Jar
	authURL   *url.URL
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

func newCookieStore(jar *cookiejar.Jar, authURL string, snapshots domain.SnapshotStore, logger *slog.Logger) *cookieStore {
	u, _ := url.Parse(authURL)
	return &cookieStore{jar: jar, authURL: u, snapshots: snapshots, logger: logger}
}

func (s *cookieStore) restore() {
	if s.snapshots == nil {
		return
	}
	var saved []storedCookie
	ok, err := s.snapshots.LoadSnapshot(CookieSnapshotKey, &saved)
	if err != nil {
		s.logger.Warn("discarding unreadable cookie snapshot", "error", err)
		return
	}
	if !ok || len(saved) == 0 {
		return
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, sc := range saved {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: s.authURL.Path})
	}
	s.mu.Lock()
	s.jar.SetCookies(s.authURL, cookies)
	s.mu.Unlock()
	s.logger.Debug("restored auth cookies", "count", len(cookies))
}

func (s *cookieStore) save() {
	if s.snapshots == nil {
		return
	}
	s.mu.Lock()
	cookies := s.jar.Cookies(s.authURL)
	s.mu.Unlock()

	saved := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		saved = append(saved, storedCookie{Name: ck.Name, Value: ck.Value})
	}
	if err := s.snapshots.SaveSnapshot(CookieSnapshotKey, saved); err != nil {
		s.logger.Error("failed to persist auth cookies", "error", err)
	}
}

// reset swaps in an empty jar and drops the snapshot
func (s *cookieStore) reset(jar *cookiejar.Jar) error {
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()

	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.DeleteSnapshot(CookieSnapshotKey)
}
