package leaderboard

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rankradar/internal/store"
	"github.com/elonfeng/rankradar/pkg/cache"
)

// Service serves the read views, memoizing each through the cache.
// A hit returns the stored value verbatim without touching the store;
// writers never invalidate, so results may lag a sync by up to one TTL.
type Service struct {
	store store.Store
	cache *cache.Cache
	log   zerolog.Logger
}

// NewService creates a read service. c may be nil to disable caching.
func NewService(st store.Store, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		cache: c,
		log:   log.With().Str("component", "leaderboard").Logger(),
	}
}

// Leaderboard returns the latest observation per user, ordered by rank
// ascending.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	if v, ok := s.cacheGet(cache.KeyLeaderboard); ok {
		return v.([]Entry), nil
	}

	rows, err := s.store.CurrentLeaderboard(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = entryFrom(row)
	}

	s.cacheSet(cache.KeyLeaderboard, entries)
	return entries, nil
}

// LeaderboardWithHistory returns the latest observation per user joined
// with that user's full history, most recent first. Both projections are
// derived from a single ordered scan so they reflect one committed
// snapshot of the event table.
func (s *Service) LeaderboardWithHistory(ctx context.Context) ([]EntryWithHistory, error) {
	if v, ok := s.cacheGet(cache.KeyHistory); ok {
		return v.([]EntryWithHistory), nil
	}

	rows, err := s.store.AllHistory(ctx)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first, so the first row seen for a user is its
	// current state.
	index := make(map[string]int)
	entries := make([]EntryWithHistory, 0)
	for _, row := range rows {
		i, seen := index[row.UserName]
		if !seen {
			i = len(entries)
			index[row.UserName] = i
			entries = append(entries, EntryWithHistory{Entry: entryFrom(row)})
		}
		entries[i].History = append(entries[i].History, HistoryPoint{
			Rank:        row.Rank,
			Score:       row.Score,
			LastUpdated: FormatTimestamp(row.UpdatedAtMs),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})

	s.cacheSet(cache.KeyHistory, entries)
	return entries, nil
}

// UserHistory returns all observations for one user, most recent first.
// An unknown user yields ErrUserNotFound; misses are never cached.
func (s *Service) UserHistory(ctx context.Context, userName string) (UserHistory, error) {
	key := cache.UserHistoryPrefix + userName
	if v, ok := s.cacheGet(key); ok {
		return v.(UserHistory), nil
	}

	rows, err := s.store.UserHistory(ctx, userName)
	if err != nil {
		return UserHistory{}, err
	}
	if len(rows) == 0 {
		return UserHistory{}, ErrUserNotFound
	}

	history := make([]HistoryPoint, len(rows))
	for i, row := range rows {
		history[i] = HistoryPoint{
			Rank:        row.Rank,
			Score:       row.Score,
			LastUpdated: FormatTimestamp(row.UpdatedAtMs),
		}
	}

	result := UserHistory{UserName: userName, History: history}
	s.cacheSet(key, result)
	return result, nil
}

func (s *Service) cacheGet(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) cacheSet(key string, value any) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}

func entryFrom(o store.Observation) Entry {
	return Entry{
		UserName:    o.UserName,
		Rank:        o.Rank,
		Score:       o.Score,
		LastUpdated: FormatTimestamp(o.UpdatedAtMs),
	}
}
