package metrics_test

import (
	"testing"
	"time"

	"github.com/elonfeng/rankradar/internal/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a metrics set", t, func() {
		m := metrics.New()

		Convey("When sync and cache events are observed", func() {
			m.ObserveSync("ok", 120*time.Millisecond, 5, 2)
			m.CacheHit()
			m.CacheMiss()

			Convey("Then the registry gathers without error", func() {
				families, err := m.Registry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestNilMetrics(t *testing.T) {
	Convey("Given a nil metrics set", t, func() {
		var m *metrics.Metrics

		Convey("Then all observers are safe no-ops", func() {
			So(func() {
				m.ObserveSync("error", time.Second, 0, 0)
				m.CacheHit()
				m.CacheMiss()
			}, ShouldNotPanic)
			So(m.Registry(), ShouldBeNil)
		})
	})
}
