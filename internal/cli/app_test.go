package cli

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/api"
	"github.com/mmcdole/reelctl/internal/api/apitest"
	"github.com/mmcdole/reelctl/internal/auth"
	"github.com/mmcdole/reelctl/internal/cache"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/drafts"
	"github.com/mmcdole/reelctl/internal/session"
	"github.com/mmcdole/reelctl/internal/store"
	"github.com/mmcdole/reelctl/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	email    = "ada@example.com"
	password = "password1"
)

type harness struct {
	srv     *apitest.Server
	app     *App
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	session *session.Store
	drafts  *drafts.Store
	cache   *cache.Cache
	videos  *video.Service
	saved   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(email, password, "Ada Lovelace")

	db, err := store.Open("", "")
	require.NoError(t, err)

	sess := session.Open(db, nil)
	d := drafts.Open(db, nil)
	c := cache.New(db, nil)

	cfg := api.DefaultConfig(srv.URL)
	cfg.RetryDelay = time.Millisecond
	client, err := api.NewClient(cfg, sess.AccessToken, db, nil)
	require.NoError(t, err)

	h := &harness{
		srv:     srv,
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		session: sess,
		drafts:  d,
		cache:   c,
	}
	term := adapter.NewTerminal(h.out, h.errOut)
	authSvc := auth.NewService(client, sess, c, term, term, nil)
	h.videos = video.NewService(client, d, c, term, nil)
	h.videos.SetReauth(authSvc.Reauthenticate)
	h.app = New(Options{
		Auth:        authSvc,
		Videos:      h.videos,
		Session:     sess,
		Drafts:      d,
		Terminal:    term,
		Prompt:      NewPrompter(strings.NewReader(""), io.Discard, 0, false),
		Out:         h.out,
		ErrOut:      h.errOut,
		Timeout:     10 * time.Second,
		RefreshSkew: time.Minute,
		Version:     "test",
		ServerURL:   srv.URL,
		SaveServerURL: func(url string) error {
			h.saved = url
			return nil
		},
	})
	return h
}

func (h *harness) input(s string) {
	h.app.Prompt = NewPrompter(strings.NewReader(s), io.Discard, 0, false)
}

func (h *harness) run(args ...string) error {
	return h.app.Run(context.Background(), args)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.input(password + "\n")
	require.NoError(t, h.run("login", "-email", email))
	h.out.Reset()
	h.errOut.Reset()
}

func TestLoginPromptsForCredentials(t *testing.T) {
	h := newHarness(t)
	h.input(email + "\n" + password + "\n")

	require.NoError(t, h.run("login"))
	assert.Contains(t, h.out.String(), "Welcome back, Ada Lovelace!")
	assert.True(t, h.session.IsAuthenticated())
}

func TestLoginFailureIsReportedOnce(t *testing.T) {
	h := newHarness(t)
	h.input("wrong\n")

	err := h.run("login", "-email", email)
	assert.ErrorIs(t, err, ErrReported)
	assert.Equal(t, 1, strings.Count(h.errOut.String(), "Incorrect email or password"))
	assert.False(t, h.session.IsAuthenticated())
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h := newHarness(t)
	h.input("new@example.com\nlongpassword\ndifferent\n")

	err := h.run("register")
	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, h.errOut.String(), "Passwords do not match")
	assert.Equal(t, 0, h.srv.Hits(http.MethodPost, "/users"))
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	h.input("longpassword\nlongpassword\n")

	require.NoError(t, h.run("register", "-email", "new@example.com", "-name", "Grace", "-login"))
	assert.Contains(t, h.out.String(), "Account created")
	assert.Contains(t, h.out.String(), "Welcome back, Grace!")
	assert.True(t, h.session.IsAuthenticated())
}

func TestAuthedCommandNeedsSession(t *testing.T) {
	h := newHarness(t)

	err := h.run("list")
	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, h.errOut.String(), "Please sign in first")
	assert.Contains(t, h.errOut.String(), "reelctl login")
	assert.Equal(t, 0, h.srv.Hits(http.MethodGet, "/videos"))
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.run("frobnicate"), ErrUsage)
	assert.Contains(t, h.errOut.String(), `unknown command "frobnicate"`)

	assert.ErrorIs(t, h.run(), ErrUsage)
	assert.NoError(t, h.run("help"))
}

func TestCreateEditSaveFlow(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.AddVideo(email, domain.PlatformTikTok, 4, "Older clip")

	require.NoError(t, h.run("create", "tiktok", "-description", "Morning routine"))
	assert.Contains(t, h.out.String(), "Video created successfully")
	assert.Contains(t, h.out.String(), "#5")

	h.out.Reset()
	require.NoError(t, h.run("list"))
	assert.Contains(t, h.out.String(), "Morning routine")
	assert.Contains(t, h.out.String(), "Older clip")

	items, _, ok := h.videos.CachedList(domain.PlatformTikTok)
	require.True(t, ok)
	var id string
	for _, e := range items {
		if e.VideoNumber == 5 {
			id = e.ID
		}
	}
	require.NotEmpty(t, id)

	require.NoError(t, h.run("edit", shortID(id), "-description", "Evening routine"))
	d, ok := h.drafts.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Evening routine", d.Description)

	h.out.Reset()
	require.NoError(t, h.run("list"))
	assert.Contains(t, h.out.String(), adapter.DirtyChar)

	require.NoError(t, h.run("save", shortID(id)))
	assert.Contains(t, h.out.String(), "Video saved successfully")
	_, ok = h.drafts.Get(id)
	assert.False(t, ok)

	stored, ok := h.srv.Video(id)
	require.True(t, ok)
	assert.Equal(t, "Evening routine", stored.Description)
}

func TestEditScheduleKeepsCaption(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	x := h.srv.AddVideo(email, domain.PlatformTikTok, 1, "Original caption")

	require.NoError(t, h.run("edit", x.ID, "-schedule", "2026-11-01T10:00:00Z"))
	require.NoError(t, h.run("save", x.ID))

	stored, ok := h.srv.Video(x.ID)
	require.True(t, ok)
	assert.Equal(t, "Original caption", stored.Description)
	require.NotNil(t, stored.ScheduledTime)
	assert.Equal(t, "2026-11-01T10:00:00Z", *stored.ScheduledTime)
}

func TestEditRejectsBadSchedule(t *testing.T) {
	h := newHarness(t)
	err := h.run("edit", "abc", "-schedule", "tomorrow")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, h.drafts.All())
}

func TestEditNeedsAChange(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.run("edit", "abc"), ErrReported)
}

func TestDiscard(t *testing.T) {
	h := newHarness(t)
	_, err := h.drafts.Update("abc", domain.DraftPatch{Description: strPtr("x")})
	require.NoError(t, err)

	require.NoError(t, h.run("discard", "abc"))
	assert.Empty(t, h.drafts.All())
	assert.ErrorIs(t, h.run("discard", "abc"), ErrReported)
}

func TestCopyAndDelete(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	entry := h.srv.AddVideo(email, domain.PlatformTikTok, 1, "Original")

	require.NoError(t, h.run("copy", entry.ID, "youtube"))
	assert.Contains(t, h.out.String(), "Video copied to YouTube")
	assert.Equal(t, []domain.VideoCopyRequest{{TargetPlatform: domain.PlatformYouTube, ShortenForYouTube: true}}, h.srv.CopyRequests())

	h.input("n\n")
	require.NoError(t, h.run("delete", entry.ID))
	_, ok := h.srv.Video(entry.ID)
	assert.True(t, ok)

	h.input("y\n")
	require.NoError(t, h.run("delete", entry.ID))
	assert.Contains(t, h.out.String(), "Video deleted successfully")
	_, ok = h.srv.Video(entry.ID)
	assert.False(t, ok)
}

func TestDeleteMissingVideo(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	err := h.run("delete", "-yes", "6f1c1e9e-6a55-4c43-9d4a-2d7f4c1b8a10")
	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, h.errOut.String(), "Video entry not found")
}

func TestListFallsBackToCache(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.AddVideo(email, domain.PlatformInstagram, 1, "Sunset reel")
	require.NoError(t, h.run("list", "instagram"))

	require.NoError(t, h.cache.InvalidatePrefix(cache.PrefixVideos))
	h.srv.Stub(http.MethodGet, "/videos", http.StatusServiceUnavailable, `{"detail":"maintenance"}`, 0)
	h.out.Reset()

	require.NoError(t, h.run("list", "instagram"))
	assert.Contains(t, h.out.String(), "Sunset reel")
	assert.Contains(t, h.errOut.String(), "Showing cached results")
	assert.Contains(t, h.errOut.String(), "maintenance")
}

func TestSearchUsesCachedList(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	coffee := h.srv.AddVideo(email, domain.PlatformTikTok, 1, "Coffee art")
	h.srv.AddVideo(email, domain.PlatformTikTok, 2, "Leg day")

	assert.ErrorIs(t, h.run("search", "coffee"), ErrReported)
	assert.Contains(t, h.errOut.String(), "reelctl list tiktok")

	require.NoError(t, h.run("list"))
	h.out.Reset()
	require.NoError(t, h.run("search", "tiktok", "coffee"))
	assert.Contains(t, h.out.String(), shortID(coffee.ID))
	assert.NotContains(t, h.out.String(), "Leg day")
}

func TestDraftsFilter(t *testing.T) {
	h := newHarness(t)
	_, _ = h.drafts.Update("a1", domain.DraftPatch{Description: strPtr("Sunset timelapse")})
	_, _ = h.drafts.Update("b2", domain.DraftPatch{Description: strPtr("Gym routine")})

	require.NoError(t, h.run("drafts", "-filter", "sunset"))
	assert.Contains(t, h.out.String(), "Sunset timelapse")
	assert.NotContains(t, h.out.String(), "Gym routine")

	require.NoError(t, h.run("clear-drafts"))
	assert.Empty(t, h.drafts.All())

	h.out.Reset()
	require.NoError(t, h.run("drafts"))
	assert.Contains(t, h.out.String(), "No unsaved changes")
}

func TestUsePlatform(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("use", "YouTube"))
	assert.Equal(t, domain.PlatformYouTube, h.drafts.ActivePlatform())

	assert.ErrorIs(t, h.run("use", "vine"), ErrReported)
	assert.Equal(t, domain.PlatformYouTube, h.drafts.ActivePlatform())
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	require.NoError(t, h.run("whoami"))
	assert.Contains(t, h.out.String(), "Ada Lovelace")
	assert.Contains(t, h.out.String(), email)

	require.NoError(t, h.run("logout"))
	assert.Contains(t, h.out.String(), "Logged out successfully")
	assert.False(t, h.session.IsAuthenticated())
}

func TestRefreshWithRevokedCredential(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.RevokeRefreshTokens()

	assert.ErrorIs(t, h.run("refresh"), ErrReported)
	assert.Contains(t, h.errOut.String(), "Your session has expired")
	assert.False(t, h.session.IsAuthenticated())
}

func TestRevokedAccessTokenIsRenewed(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.AddVideo(email, domain.PlatformTikTok, 1, "Still here")
	h.srv.RevokeAccessTokens()

	require.NoError(t, h.run("list", "tiktok"))
	assert.Contains(t, h.out.String(), "Still here")
	assert.True(t, h.session.IsAuthenticated())
}

func TestRevokedSessionSendsUserToLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.RevokeAccessTokens()
	h.srv.RevokeRefreshTokens()

	assert.ErrorIs(t, h.run("list", "tiktok"), ErrReported)
	assert.False(t, h.session.IsAuthenticated())
	assert.Contains(t, h.errOut.String(), "Run 'reelctl login' to sign in.")

	assert.ErrorIs(t, h.run("list", "tiktok"), ErrReported)
	assert.Contains(t, h.errOut.String(), "Please sign in first")
}

func TestNearExpiryTokenIsRefreshedBeforeCommand(t *testing.T) {
	h := newHarness(t)
	h.srv.TokenTTL = 30 * time.Second
	h.login(t)
	before := h.session.AccessToken()

	require.NoError(t, h.run("whoami"))
	assert.NotEqual(t, before, h.session.AccessToken())
	assert.Equal(t, 1, h.srv.Hits(http.MethodPost, "/auth/refresh"))
}

func TestServerCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("server"))
	assert.Contains(t, h.out.String(), h.srv.URL)

	require.NoError(t, h.run("server", "https://api.example.com/"))
	assert.Equal(t, "https://api.example.com", h.saved)
}

func TestResolveID(t *testing.T) {
	h := newHarness(t)
	_, _ = h.drafts.Update("abc111", domain.DraftPatch{Description: strPtr("x")})
	_, _ = h.drafts.Update("abc222", domain.DraftPatch{Description: strPtr("y")})

	id, err := h.app.resolveID("abc1")
	require.NoError(t, err)
	assert.Equal(t, "abc111", id)

	_, err = h.app.resolveID("abc")
	assert.ErrorIs(t, err, ErrReported)

	id, err = h.app.resolveID("zzz")
	require.NoError(t, err)
	assert.Equal(t, "zzz", id)
}

func TestParseFlagsInterleaved(t *testing.T) {
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	desc := fs.String("description", "", "")

	rest, err := parseFlags(fs, []string{"abc", "-description", "hello", "def"})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def"}, rest)
	assert.Equal(t, "hello", *desc)
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "plain", highlight("plain", nil))
	assert.Contains(t, highlight("Coffee", []int{0, 1}), "ffee")
	assert.Equal(t, "…", truncate("abc", 1))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
}

func strPtr(s string) *string { return &s }
