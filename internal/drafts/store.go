// Package drafts stages unsaved edits to video entries. A draft's presence
// means its edits have not reached the server yet.
package drafts

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mmcdole/reelctl/internal/domain"
)

// SnapshotKey is where the draft mapping is persisted
const SnapshotKey = "draft-storage"

// Store is the local draft mapping. It never talks to the network.
type Store struct {
	mu        sync.RWMutex
	state     domain.DraftState
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

// Open restores the persisted drafts
func Open(snapshots domain.SnapshotStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		snapshots: snapshots,
		logger:    logger,
		state:     domain.DraftState{Drafts: make(map[string]domain.Draft)},
	}

	var saved domain.DraftState
	ok, err := snapshots.LoadSnapshot(SnapshotKey, &saved)
	if err != nil {
		logger.Warn("discarding unreadable draft snapshot", "error", err)
		return s
	}
	if ok {
		if saved.Drafts == nil {
			saved.Drafts = make(map[string]domain.Draft)
		}
		// Snapshots written before DescriptionSet existed
		for id, d := range saved.Drafts {
			if d.Description != "" && !d.DescriptionSet {
				d.DescriptionSet = true
				saved.Drafts[id] = d
			}
		}
		s.state = saved
		logger.Debug("drafts restored", "count", len(saved.Drafts))
	}
	return s
}

func (s *Store) apply(mutate func(*domain.DraftState)) error {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := domain.DraftState{
		Drafts:         make(map[string]domain.Draft, len(s.state.Drafts)),
		ActivePlatform: s.state.ActivePlatform,
	}
	for id, d := range s.state.Drafts {
		snapshot.Drafts[id] = d
	}
	s.mu.Unlock()

	if err := s.snapshots.SaveSnapshot(SnapshotKey, snapshot); err != nil {
		s.logger.Error("failed to persist drafts", "error", err)
		return err
	}
	return nil
}

// Update merges patch into the draft for id, creating it if needed, and
// marks it dirty. Fields left nil in patch keep their current value.
func (s *Store) Update(id string, patch domain.DraftPatch) (domain.Draft, error) {
	var merged domain.Draft
	err := s.apply(func(st *domain.DraftState) {
		d, ok := st.Drafts[id]
		if !ok {
			d = domain.Draft{ID: id}
		}
		if patch.Description != nil {
			d.Description = *patch.Description
			d.DescriptionSet = true
		}
		if patch.YouTubeDescription != nil {
			v := *patch.YouTubeDescription
			d.YouTubeDescription = &v
		}
		if patch.ScheduledTime != nil {
			v := *patch.ScheduledTime
			d.ScheduledTime = &v
		}
		d.IsDirty = true
		st.Drafts[id] = d
		merged = d
	})
	return merged, err
}

// Clear removes the draft for id. Clearing a missing draft is a no-op.
func (s *Store) Clear(id string) error {
	s.mu.RLock()
	_, ok := s.state.Drafts[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.apply(func(st *domain.DraftState) {
		delete(st.Drafts, id)
	})
}

// ClearAll discards every draft
func (s *Store) ClearAll() error {
	return s.apply(func(st *domain.DraftState) {
		st.Drafts = make(map[string]domain.Draft)
	})
}

// Get returns the draft for id, if any
func (s *Store) Get(id string) (domain.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.Drafts[id]
	return d, ok
}

// HasDirty reports whether any draft holds unsaved edits
func (s *Store) HasDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.state.Drafts {
		if d.IsDirty {
			return true
		}
	}
	return false
}

// All returns every draft ordered by entry ID
func (s *Store) All() []domain.Draft {
	s.mu.RLock()
	out := make([]domain.Draft, 0, len(s.state.Drafts))
	for _, d := range s.state.Drafts {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetActivePlatform records the platform the user is working on
func (s *Store) SetActivePlatform(p domain.Platform) error {
	return s.apply(func(st *domain.DraftState) {
		st.ActivePlatform = p
	})
}

// ActivePlatform returns the last platform set, defaulting to TikTok
func (s *Store) ActivePlatform() domain.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.ActivePlatform.Valid() {
		return domain.PlatformTikTok
	}
	return s.state.ActivePlatform
}
