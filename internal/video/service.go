// Package video runs the video entry operations. Commands hit the network
// and then invalidate exactly the cache entries they made stale; queries
// read through the cache.
package video

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/reelctl/internal/cache"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/validate"
)

const (
	// DefaultListStale is how long a fetched list or entry counts as fresh
	DefaultListStale = 30 * time.Second

	// listPageSize is the largest page the server serves
	listPageSize = 100
)

// Drafts is the part of the draft store the video operations need
type Drafts interface {
	Get(id string) (domain.Draft, bool)
	Clear(id string) error
}

// Service orchestrates video client + drafts + cache
type Service struct {
	client    domain.VideoRepository
	drafts    Drafts
	cache     *cache.Cache
	notify    domain.Notifier
	listStale time.Duration
	reauth    func(ctx context.Context) error
	logger    *slog.Logger
}

// NewService creates a new video service. notify may be nil.
func NewService(
	client domain.VideoRepository,
	drafts Drafts,
	c *cache.Cache,
	notify domain.Notifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = domain.NoOpNotifier{}
	}
	return &Service{
		client:    client,
		drafts:    drafts,
		cache:     c,
		notify:    notify,
		listStale: DefaultListStale,
		logger:    logger,
	}
}

// SetListStale overrides how long lists and entries stay fresh
func (s *Service) SetListStale(d time.Duration) {
	if d > 0 {
		s.listStale = d
	}
}

// SetReauth installs the hook run when the server rejects the access token.
// It should renew the session, or sign out when that is not possible; the
// rejected call is retried once after it succeeds.
func (s *Service) SetReauth(fn func(ctx context.Context) error) {
	s.reauth = fn
}

// authed runs one network call, retrying it once after a successful reauth
// when the first attempt came back 401
func (s *Service) authed(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if !errors.Is(err, domain.ErrAuthFailed) || s.reauth == nil {
		return err
	}
	s.logger.Info("access token rejected, renewing session", "error", err)
	if rerr := s.reauth(ctx); rerr != nil {
		s.logger.Warn("session renewal failed", "error", rerr)
		return err
	}
	return call(ctx)
}

func (s *Service) fail(op, fallback string, err error, args ...any) error {
	s.logger.Error("video operation failed", append([]any{"op", op, "error", err}, args...)...)
	s.notify.Error(domain.Describe(err, fallback))
	return err
}

func (s *Service) invalidate(keys ...string) {
	for _, k := range keys {
		if err := s.cache.Invalidate(k); err != nil {
			s.logger.Error("failed to invalidate cache", "key", k, "error", err)
		}
	}
}

// === Commands ===

func (s *Service) Create(ctx context.Context, req domain.VideoCreateRequest) (*domain.VideoEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, s.fail("create", msgCreateFailed, err)
	}
	var entry *domain.VideoEntry
	err := s.authed(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.client.CreateVideo(ctx, req)
		return err
	})
	if err != nil {
		return nil, s.fail("create", msgCreateFailed, err, "platform", req.Platform)
	}
	s.invalidate(cache.ListKeysFor(entry.Platform)...)
	s.logger.Info("video created", "videoID", entry.ID, "platform", entry.Platform, "number", entry.VideoNumber)
	s.notify.Success(msgCreated)
	return entry, nil
}

// CreateNext creates an entry numbered one past the highest number on
// platform p. Platform lists come back in number order, so when they span
// several pages the last page is read too.
func (s *Service) CreateNext(ctx context.Context, p domain.Platform, description string) (*domain.VideoEntry, error) {
	page, err := s.List(ctx, p)
	if err != nil {
		return nil, err
	}

	entries := page.Items
	if page.Total > len(page.Items) && page.Size > 0 {
		last := (page.Total + page.Size - 1) / page.Size
		var tail *domain.VideoPage
		err := s.authed(ctx, func(ctx context.Context) error {
			var err error
			tail, err = s.client.ListVideos(ctx, domain.VideoListQuery{Platform: p, Page: last, Size: page.Size})
			return err
		})
		if err != nil {
			return nil, s.fail("create", msgCreateFailed, err, "platform", p, "page", last)
		}
		entries = append(append([]domain.VideoEntry(nil), entries...), tail.Items...)
	}

	return s.Create(ctx, domain.VideoCreateRequest{
		Platform:    p,
		VideoNumber: NextNumber(entries, p),
		Description: description,
	})
}

// Update patches an entry. Its platform's lists and its detail entry are
// invalidated; other platforms are untouched.
func (s *Service) Update(ctx context.Context, id string, req domain.VideoUpdateRequest) (*domain.VideoEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, s.fail("update", msgUpdateFailed, err, "videoID", id)
	}
	var entry *domain.VideoEntry
	err := s.authed(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.client.UpdateVideo(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, s.fail("update", msgUpdateFailed, err, "videoID", id)
	}
	s.invalidate(append(cache.ListKeysFor(entry.Platform), cache.VideoDetailKey(id))...)
	s.logger.Info("video updated", "videoID", id, "platform", entry.Platform)
	s.notify.Success(msgSaved)
	return entry, nil
}

// SaveDraft sends the fields the stored draft for id has set as an update
// and discards the draft once the server has accepted it
func (s *Service) SaveDraft(ctx context.Context, id string) (*domain.VideoEntry, error) {
	d, ok := s.drafts.Get(id)
	if !ok {
		s.notify.Error(msgNoDraft)
		return nil, domain.ErrDraftNotFound
	}
	req := d.UpdateRequest()
	if req.Empty() {
		if err := s.drafts.Clear(id); err != nil {
			s.logger.Error("failed to clear empty draft", "videoID", id, "error", err)
		}
		s.notify.Error(msgNoDraft)
		return nil, domain.ErrDraftNotFound
	}

	entry, err := s.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Clear(id); err != nil {
		s.logger.Error("failed to clear saved draft", "videoID", id, "error", err)
	}
	return entry, nil
}

// Delete removes an entry, invalidates every video cache entry and drops
// any draft for it
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.authed(ctx, func(ctx context.Context) error {
		return s.client.DeleteVideo(ctx, id)
	})
	if err != nil {
		return s.fail("delete", msgDeleteFailed, err, "videoID", id)
	}
	if err := s.cache.InvalidatePrefix(cache.PrefixVideos); err != nil {
		s.logger.Error("failed to invalidate video cache", "error", err)
	}
	if err := s.drafts.Clear(id); err != nil {
		s.logger.Error("failed to clear draft of deleted video", "videoID", id, "error", err)
	}
	s.logger.Info("video deleted", "videoID", id)
	s.notify.Success(msgDeleted)
	return nil
}

// Copy duplicates an entry onto target. The server is asked to shorten the
// description only when target is YouTube.
func (s *Service) Copy(ctx context.Context, id string, target domain.Platform) (*domain.VideoEntry, error) {
	req := domain.VideoCopyRequest{
		TargetPlatform:    target,
		ShortenForYouTube: target == domain.PlatformYouTube,
	}
	if err := validate.Struct(req); err != nil {
		return nil, s.fail("copy", msgCopyFailed, err, "videoID", id)
	}
	var entry *domain.VideoEntry
	err := s.authed(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.client.CopyVideo(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, s.fail("copy", msgCopyFailed, err, "videoID", id, "target", target)
	}
	s.invalidate(cache.ListKeysFor(target)...)
	s.logger.Info("video copied", "videoID", id, "copyID", entry.ID, "target", target)
	s.notify.Success(msgCopied(target))
	return entry, nil
}

// === Network queries ===

// List returns the entries for p (all platforms when empty), fetching when
// the cached list is stale
func (s *Service) List(ctx context.Context, p domain.Platform) (*domain.VideoPage, error) {
	page, err := cache.Fetch(ctx, s.cache, cache.VideoListKey(p), s.listStale,
		func(ctx context.Context) (page *domain.VideoPage, err error) {
			err = s.authed(ctx, func(ctx context.Context) error {
				page, err = s.client.ListVideos(ctx, domain.VideoListQuery{Platform: p, Page: 1, Size: listPageSize})
				return err
			})
			return page, err
		})
	if err != nil {
		return nil, s.fail("list", msgLoadFailed, err, "platform", p)
	}
	return page, nil
}

// Get returns one entry, fetching when the cached copy is stale
func (s *Service) Get(ctx context.Context, id string) (*domain.VideoEntry, error) {
	entry, err := cache.Fetch(ctx, s.cache, cache.VideoDetailKey(id), s.listStale,
		func(ctx context.Context) (entry *domain.VideoEntry, err error) {
			err = s.authed(ctx, func(ctx context.Context) error {
				entry, err = s.client.GetVideo(ctx, id)
				return err
			})
			return entry, err
		})
	if err != nil {
		return nil, s.fail("get", msgLoadFailed, err, "videoID", id)
	}
	return entry, nil
}
