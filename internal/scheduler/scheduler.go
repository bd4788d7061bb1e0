package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Syncer is the sync engine surface the scheduler drives.
type Syncer interface {
	Seed(ctx context.Context)
	SyncWithRetry(ctx context.Context)
}

// Scheduler invokes the retrying sync cycle on a fixed interval.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	log      zerolog.Logger
}

// New creates a scheduler.
func New(syncer Syncer, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Run seeds an empty store, then ticks until ctx is cancelled. Blocks.
func (s *Scheduler) Run(ctx context.Context) error {
	s.syncer.Seed(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.syncer.SyncWithRetry(ctx)
		}
	}
}
