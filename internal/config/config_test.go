package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elonfeng/rankradar/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.Default()

		Convey("Then sync policy constants match the design defaults", func() {
			So(cfg.Sync.ParseInterval(), ShouldEqual, 5*time.Minute)
			So(cfg.Sync.MaxAttempts, ShouldEqual, 10)
			So(cfg.Sync.ParseRetryDelay(), ShouldEqual, 20*time.Second)
			So(cfg.Sync.ParseOverallTimeout(), ShouldEqual, 260*time.Second)
		})

		Convey("Then upstream and cache settings have sane defaults", func() {
			So(cfg.Upstream.BaseURL, ShouldEqual, "https://secure.runescape.com")
			So(cfg.Upstream.PageSize, ShouldEqual, 50)
			So(cfg.Upstream.ParseTimeout(), ShouldEqual, 4*time.Second)
			So(cfg.Cache.ParseTTL(), ShouldEqual, 5*time.Minute)
			So(cfg.Server.Port, ShouldEqual, 8080)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		data := []byte(`
database:
  path: /tmp/other.db
sync:
  interval: 1m
  max_attempts: 3
server:
  port: 9090
`)
		So(os.WriteFile(path, data, 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			cfg, err := config.Load(path)

			Convey("Then file values override defaults and the rest survive", func() {
				So(err, ShouldBeNil)
				So(cfg.Database.Path, ShouldEqual, "/tmp/other.db")
				So(cfg.Sync.ParseInterval(), ShouldEqual, time.Minute)
				So(cfg.Sync.MaxAttempts, ShouldEqual, 3)
				So(cfg.Server.Port, ShouldEqual, 9090)
				So(cfg.Upstream.PageSize, ShouldEqual, 50)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := config.Load(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("When no path is given", func() {
			cfg, err := config.Load("")
			So(err, ShouldBeNil)
			So(cfg.Server.Port, ShouldEqual, 8080)
		})
	})
}

func TestEnvOverrides(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("RANKRADAR_DB_PATH", "/tmp/env.db")
		t.Setenv("RANKRADAR_PORT", "7070")
		t.Setenv("RANKRADAR_LOG_LEVEL", "debug")

		Convey("When config is loaded", func() {
			cfg, err := config.Load("")

			Convey("Then env vars win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Database.Path, ShouldEqual, "/tmp/env.db")
				So(cfg.Server.Port, ShouldEqual, 7070)
				So(cfg.Log.Level, ShouldEqual, "debug")
			})
		})
	})
}
