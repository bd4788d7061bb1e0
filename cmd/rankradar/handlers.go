package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rankradar/internal/config"
	"github.com/elonfeng/rankradar/internal/metrics"
	"github.com/elonfeng/rankradar/internal/scheduler"
	"github.com/elonfeng/rankradar/internal/store"
	"github.com/elonfeng/rankradar/pkg/cache"
	"github.com/elonfeng/rankradar/pkg/hiscores"
	"github.com/elonfeng/rankradar/pkg/leaderboard"
	"github.com/elonfeng/rankradar/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Log.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *store.SQLiteStore
	metrics *metrics.Metrics
	syncer  *leaderboard.Syncer
	service *leaderboard.Service
}

func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := buildLogger(cfg)

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	m := metrics.New()

	client := hiscores.NewClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.Table,
		cfg.Upstream.Category,
		cfg.Upstream.PageSize,
		cfg.Upstream.ParseTimeout(),
	)

	fetchCache := cache.New(cfg.Upstream.ParseCacheTTL())
	readCache := cache.New(cfg.Cache.ParseTTL(), cache.WithStats(m.CacheHit, m.CacheMiss))

	syncer := leaderboard.NewSyncer(
		client, db, fetchCache, m, log,
		cfg.Sync.MaxAttempts,
		cfg.Sync.ParseRetryDelay(),
		cfg.Sync.ParseOverallTimeout(),
	)
	service := leaderboard.NewService(db, readCache, log)

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		metrics: m,
		syncer:  syncer,
		service: service,
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

func runSync() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.syncer.Sync(context.Background())
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if result == nil {
		fmt.Println("upstream returned no rows, nothing to reconcile")
		return nil
	}

	fmt.Printf("inserted %d, removed %d\n", result.Inserted, result.Removed)
	return nil
}

func runLeaderboard(jsonOutput bool) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.service.Leaderboard(context.Background())
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("no tracked users (try syncing first: rankradar sync)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tSCORE\tLAST UPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", e.Rank, e.UserName, e.Score, e.LastUpdated)
	}
	return w.Flush()
}

func runServe(port int) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(a.service, a.syncer, a.metrics.Registry(), a.log, port)
	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(a.syncer, a.cfg.Sync.ParseInterval(), a.log)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error().Err(err).Msg("scheduler exited")
		}
	}()

	srv := server.New(a.service, a.syncer, a.metrics.Registry(), a.log, port)
	return srv.ListenAndServe(ctx)
}
