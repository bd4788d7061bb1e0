package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rankradar/internal/scheduler"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSyncer struct {
	seeds atomic.Int64
	syncs atomic.Int64
}

func (f *fakeSyncer) Seed(ctx context.Context)          { f.seeds.Add(1) }
func (f *fakeSyncer) SyncWithRetry(ctx context.Context) { f.syncs.Add(1) }

func TestSchedulerRun(t *testing.T) {
	Convey("Given a scheduler with a short interval", t, func() {
		syncer := &fakeSyncer{}
		sched := scheduler.New(syncer, 10*time.Millisecond, zerolog.Nop())

		Convey("When it runs until cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() { done <- sched.Run(ctx) }()

			// Let a few ticks pass.
			time.Sleep(55 * time.Millisecond)
			cancel()
			err := <-done

			Convey("Then it seeded once, ticked repeatedly, and stopped", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(syncer.seeds.Load(), ShouldEqual, 1)
				So(syncer.syncs.Load(), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})
	})
}
