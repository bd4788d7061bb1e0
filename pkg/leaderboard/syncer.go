package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/elonfeng/rankradar/internal/metrics"
	"github.com/elonfeng/rankradar/internal/store"
	"github.com/elonfeng/rankradar/pkg/cache"
	"github.com/elonfeng/rankradar/pkg/hiscores"
)

// Fetcher fetches raw ranking rows from the upstream API.
type Fetcher interface {
	Rankings(ctx context.Context) ([]hiscores.RankRow, error)
}

// Syncer runs the fetch -> parse -> reconcile cycle. At most one cycle
// runs at a time; concurrent triggers are rejected with ErrSyncInFlight.
type Syncer struct {
	client  Fetcher
	store   store.Store
	fetches *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger

	maxAttempts    int
	retryDelay     time.Duration
	overallTimeout time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewSyncer creates a sync engine. fetches memoizes the last good parsed
// fetch under its own TTL, independent of the read-side caches; pass nil
// to fetch fresh every cycle. m may be nil.
func NewSyncer(
	client Fetcher,
	st store.Store,
	fetches *cache.Cache,
	m *metrics.Metrics,
	log zerolog.Logger,
	maxAttempts int,
	retryDelay, overallTimeout time.Duration,
) *Syncer {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if retryDelay <= 0 {
		retryDelay = 20 * time.Second
	}
	if overallTimeout <= 0 {
		overallTimeout = 260 * time.Second
	}
	return &Syncer{
		client:         client,
		store:          st,
		fetches:        fetches,
		metrics:        m,
		log:            log.With().Str("component", "syncer").Logger(),
		maxAttempts:    maxAttempts,
		retryDelay:     retryDelay,
		overallTimeout: overallTimeout,
		now:            time.Now,
	}
}

// Sync runs one non-retrying cycle. It returns a nil result when the
// upstream reported no rows; reconciliation never runs against an empty
// snapshot, so an upstream hiccup can never empty the store.
func (s *Syncer) Sync(ctx context.Context) (*store.ReconcileResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInFlight
	}
	defer s.mu.Unlock()

	return s.cycle(ctx)
}

func (s *Syncer) cycle(ctx context.Context) (*store.ReconcileResult, error) {
	start := s.now()

	items, err := s.fetch(ctx)
	if err != nil {
		s.observe("error", start, store.ReconcileResult{})
		return nil, err
	}

	if len(items) == 0 {
		s.log.Info().Msg("upstream returned no rows, skipping reconciliation")
		s.observe("noop", start, store.ReconcileResult{})
		return nil, nil
	}

	result, err := s.store.Reconcile(ctx, items, s.now().UnixMilli())
	if err != nil {
		s.observe("error", start, store.ReconcileResult{})
		return nil, err
	}

	s.observe("ok", start, result)
	s.log.Info().
		Int64("inserted", result.Inserted).
		Int64("removed", result.Removed).
		Msg("reconciled leaderboard snapshot")
	return &result, nil
}

// SyncWithRetry is the scheduled entry point. It retries the full cycle
// with a constant delay up to the attempt limit, bounded by the overall
// wall-clock timeout. Exhausting retries is logged and swallowed; the
// next tick starts fresh.
func (s *Syncer) SyncWithRetry(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.overallTimeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.retryDelay),
			uint64(s.maxAttempts-1),
		),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		_, err := s.Sync(ctx)
		if errors.Is(err, ErrSyncInFlight) {
			// Another trigger holds the slot; do not pile up behind it.
			return backoff.Permanent(err)
		}
		if err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("sync attempt failed")
		}
		return err
	}, policy)
	if err != nil {
		s.log.Error().Err(err).Int("attempts", attempt).Msg("sync cycle gave up, next tick will retry")
	}
}

// Seed runs one synchronous cycle when the store is empty, so a fresh
// process serves data before the first scheduled tick. Failures are
// logged, never fatal to startup.
func (s *Syncer) Seed(ctx context.Context) {
	empty, err := s.store.Empty(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("cold-start check failed")
		return
	}
	if !empty {
		return
	}

	s.log.Info().Msg("store is empty, running cold-start seed")
	if _, err := s.Sync(ctx); err != nil {
		s.log.Error().Err(err).Msg("cold-start seed failed")
	}
}

// LatestRankings returns the most recent parsed upstream snapshot,
// serving the memoized fetch when it is still fresh.
func (s *Syncer) LatestRankings(ctx context.Context) ([]hiscores.RankItem, error) {
	return s.fetch(ctx)
}

func (s *Syncer) fetch(ctx context.Context) ([]hiscores.RankItem, error) {
	if s.fetches != nil {
		if v, ok := s.fetches.Get(cache.KeyUpstream); ok {
			return v.([]hiscores.RankItem), nil
		}
	}

	rows, err := s.client.Rankings(ctx)
	if err != nil {
		return nil, err
	}

	items, err := hiscores.Parse(rows)
	if err != nil {
		return nil, err
	}

	if len(items) > 0 && s.fetches != nil {
		s.fetches.Set(cache.KeyUpstream, items)
	}
	return items, nil
}

func (s *Syncer) observe(result string, start time.Time, r store.ReconcileResult) {
	s.metrics.ObserveSync(result, s.now().Sub(start), r.Inserted, r.Removed)
}
