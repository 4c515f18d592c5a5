// Package session holds the signed-in identity and bearer credential.
package session

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/reelctl/internal/domain"
)

// SnapshotKey is where the session is persisted
const SnapshotKey = "auth-storage"

// Store is the process-wide session. It is created once at startup and
// passed to whatever needs it.
type Store struct {
	mu        sync.RWMutex
	state     domain.Session
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

// Open restores the last persisted session. A missing or unreadable snapshot
// yields an empty session.
func Open(snapshots domain.SnapshotStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{snapshots: snapshots, logger: logger}

	var saved domain.Session
	ok, err := snapshots.LoadSnapshot(SnapshotKey, &saved)
	if err != nil {
		logger.Warn("discarding unreadable session snapshot", "error", err)
		return s
	}
	if ok {
		saved.IsAuthenticated = saved.Authenticated()
		s.state = saved
		logger.Debug("session restored", "authenticated", saved.IsAuthenticated)
	}
	return s
}

// apply runs mutate on the in-memory state, recomputes the derived flag and
// persists the result. Memory is updated even if the write fails.
func (s *Store) apply(mutate func(*domain.Session)) error {
	s.mu.Lock()
	mutate(&s.state)
	s.state.IsAuthenticated = s.state.Authenticated()
	snapshot := s.state
	s.mu.Unlock()

	if err := s.snapshots.SaveSnapshot(SnapshotKey, snapshot); err != nil {
		s.logger.Error("failed to persist session", "error", err)
		return err
	}
	return nil
}

// Login replaces the session with user and token
func (s *Store) Login(user domain.User, token string) error {
	return s.apply(func(st *domain.Session) {
		u := user
		st.User = &u
		st.AccessToken = token
	})
}

// SetAccessToken replaces only the credential
func (s *Store) SetAccessToken(token string) error {
	return s.apply(func(st *domain.Session) {
		st.AccessToken = token
	})
}

// Logout clears the session
func (s *Store) Logout() error {
	return s.apply(func(st *domain.Session) {
		*st = domain.Session{}
	})
}

// Snapshot returns a copy of the current session
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// AccessToken returns the bearer token, or "" when signed out
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// User returns the signed-in profile, or false when there is none
func (s *Store) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return domain.User{}, false
	}
	return *s.state.User, true
}

// IsAuthenticated reports whether both a profile and a token are held
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}
