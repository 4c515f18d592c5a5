// Package auth runs the account operations: sign-in, registration, sign-out
// and silent token refresh. Each operation makes its network call, then
// applies its effects to the session and the cache.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmcdole/reelctl/internal/cache"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/validate"
)

// DefaultUserStale is how long a fetched profile counts as fresh
const DefaultUserStale = 5 * time.Minute

// Session is the part of the session store the account operations need
type Session interface {
	Login(user domain.User, token string) error
	SetAccessToken(token string) error
	Logout() error
	AccessToken() string
	IsAuthenticated() bool
}

// Service orchestrates auth client + session + cache
type Service struct {
	client    domain.AuthRepository
	session   Session
	cache     *cache.Cache
	notify    domain.Notifier
	nav       domain.Navigator
	userStale time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new auth service. notify and nav may be nil.
func NewService(
	client domain.AuthRepository,
	session Session,
	c *cache.Cache,
	notify domain.Notifier,
	nav domain.Navigator,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = domain.NoOpNotifier{}
	}
	if nav == nil {
		nav = domain.NoOpNavigator{}
	}
	return &Service{
		client:    client,
		session:   session,
		cache:     c,
		notify:    notify,
		nav:       nav,
		userStale: DefaultUserStale,
		now:       time.Now,
		logger:    logger,
	}
}

// SetUserStale overrides how long the cached profile stays fresh
func (s *Service) SetUserStale(d time.Duration) {
	if d > 0 {
		s.userStale = d
	}
}

// fail logs err, shows one message and hands err back
func (s *Service) fail(op, fallback string, err error) error {
	s.logger.Error("auth operation failed", "op", op, "error", err)
	s.notify.Error(domain.Describe(err, fallback))
	return err
}

// Login signs in and seeds the profile cache
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	req := domain.LoginRequest{Username: email, Password: password}
	if err := validate.Struct(req); err != nil {
		return nil, s.fail("login", msgLoginFailed, err)
	}

	res, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.fail("login", msgLoginFailed, err)
	}

	if err := s.session.Login(res.User, res.AccessToken); err != nil {
		s.logger.Error("session not persisted after login", "error", err)
	}
	s.seedUser(res.User)
	s.logger.Info("signed in", "userID", res.User.ID)
	s.notify.Success(msgWelcomeBack(res.User))
	return &res.User, nil
}

// Register creates an account without signing in
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, s.fail("register", msgRegisterFailed, err)
	}
	user, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.fail("register", msgRegisterFailed, err)
	}
	s.logger.Info("account registered", "userID", user.ID)
	s.notify.Success(msgRegistered)
	return user, nil
}

// RegisterAndLogin registers then signs in with the same credentials.
// Sign-in is not attempted when registration fails.
func (s *Service) RegisterAndLogin(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if _, err := s.Register(ctx, req); err != nil {
		return nil, err
	}
	return s.Login(ctx, req.Email, req.Password)
}

// Logout revokes the session on the server. Local state is cleared and the
// user is sent to sign-in whatever the server says.
func (s *Service) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	s.signOut()
	if err != nil {
		s.logger.Warn("server logout failed, signed out locally", "error", err)
	} else {
		s.notify.Success(msgLoggedOut)
	}
	s.nav.ToLogin()
	return nil
}

// LogoutAll revokes every session of the account. On failure the local
// session is left as it was.
func (s *Service) LogoutAll(ctx context.Context) (int, error) {
	var res *domain.LogoutAllResult
	err := s.authed(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.client.LogoutAll(ctx)
		return err
	})
	if err != nil {
		return 0, s.fail("logout-all", msgLogoutAllFailed, err)
	}
	s.signOut()
	s.logger.Info("revoked all sessions", "count", res.RevokedSessions)
	s.notify.Success(msgLoggedOutAll(res.RevokedSessions))
	s.nav.ToLogin()
	return res.RevokedSessions, nil
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	req := domain.PasswordChangeRequest{CurrentPassword: current, NewPassword: next}
	if err := validate.Struct(req); err != nil {
		return s.fail("change-password", msgChangePasswordFailed, err)
	}
	err := s.authed(ctx, func(ctx context.Context) error {
		return s.client.ChangePassword(ctx, req)
	})
	if err != nil {
		return s.fail("change-password", msgChangePasswordFailed, err)
	}
	s.notify.Success(msgPasswordChanged)
	return nil
}

// RefreshSession silently swaps in a new access token and reloads the
// profile. Any failure signs the user out; nothing is shown.
func (s *Service) RefreshSession(ctx context.Context) error {
	tok, err := s.client.Refresh(ctx)
	if err != nil {
		s.expire("refresh rejected", err)
		return err
	}
	if err := s.session.SetAccessToken(tok.AccessToken); err != nil {
		s.logger.Error("session not persisted after refresh", "error", err)
	}

	user, err := s.client.CurrentUser(ctx)
	if errors.Is(err, domain.ErrInvalidResponse) {
		// The new credential stays; only the profile reload is skipped
		s.logger.Warn("profile reload returned an invalid response", "error", err)
		return nil
	}
	if err != nil {
		s.expire("profile reload failed", err)
		return err
	}

	if err := s.session.Login(*user, tok.AccessToken); err != nil {
		s.logger.Error("session not persisted after refresh", "error", err)
	}
	s.seedUser(*user)
	s.logger.Debug("session refreshed", "userID", user.ID)
	return nil
}

// Reauthenticate renews a session whose access token the server rejected.
// A failed renewal signs the user out.
func (s *Service) Reauthenticate(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	return s.RefreshSession(ctx)
}

// authed runs a call that needs the access token. A 401 renews the session
// and the call is retried once.
func (s *Service) authed(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if !errors.Is(err, domain.ErrAuthFailed) {
		return err
	}
	s.logger.Info("access token rejected, renewing session", "error", err)
	if rerr := s.Reauthenticate(ctx); rerr != nil {
		return err
	}
	return call(ctx)
}

// EnsureFresh refreshes the session when the access token expires within
// skew. Tokens that carry no expiry are used as they are.
func (s *Service) EnsureFresh(ctx context.Context, skew time.Duration) error {
	if !s.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	exp, ok := tokenExpiry(s.session.AccessToken())
	if !ok || s.now().Add(skew).Before(exp) {
		return nil
	}
	s.logger.Debug("access token near expiry, refreshing", "expiresAt", exp)
	return s.RefreshSession(ctx)
}

// CurrentUser returns the signed-in profile, fetching it when the cached
// copy is stale
func (s *Service) CurrentUser(ctx context.Context) (domain.User, error) {
	if !s.session.IsAuthenticated() {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return cache.Fetch(ctx, s.cache, cache.KeyCurrentUser, s.userStale, func(ctx context.Context) (domain.User, error) {
		var u *domain.User
		err := s.authed(ctx, func(ctx context.Context) error {
			var err error
			u, err = s.client.CurrentUser(ctx)
			return err
		})
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
}

func (s *Service) seedUser(u domain.User) {
	if err := s.cache.Set(cache.KeyCurrentUser, u, s.userStale); err != nil {
		s.logger.Error("failed to seed profile cache", "error", err)
	}
}

// signOut clears every piece of local account state
func (s *Service) signOut() {
	if err := s.session.Logout(); err != nil {
		s.logger.Error("session not persisted after logout", "error", err)
	}
	if err := s.cache.RemovePrefix(cache.PrefixAuth); err != nil {
		s.logger.Error("failed to purge auth cache", "error", err)
	}
	if err := s.client.ClearCookies(); err != nil {
		s.logger.Error("failed to clear auth cookies", "error", err)
	}
}

func (s *Service) expire(reason string, err error) {
	s.logger.Warn("session expired", "reason", reason, "error", err)
	s.signOut()
}

// tokenExpiry reads the exp claim without verifying the signature
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
