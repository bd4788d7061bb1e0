// Package server provides the HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elonfeng/rankradar/internal/store"
	"github.com/elonfeng/rankradar/pkg/hiscores"
	"github.com/elonfeng/rankradar/pkg/leaderboard"
)

// LeaderboardService is the read surface served by the API.
type LeaderboardService interface {
	Leaderboard(ctx context.Context) ([]leaderboard.Entry, error)
	LeaderboardWithHistory(ctx context.Context) ([]leaderboard.EntryWithHistory, error)
	UserHistory(ctx context.Context, userName string) (leaderboard.UserHistory, error)
}

// SyncTrigger is the on-demand sync surface served by the API.
type SyncTrigger interface {
	Sync(ctx context.Context) (*store.ReconcileResult, error)
	LatestRankings(ctx context.Context) ([]hiscores.RankItem, error)
}

// Server provides the HTTP API.
type Server struct {
	svc      LeaderboardService
	syncer   SyncTrigger
	registry *prometheus.Registry
	log      zerolog.Logger
	port     int
}

// New creates a new HTTP server. registry may be nil to skip /metrics.
func New(svc LeaderboardService, syncer SyncTrigger, registry *prometheus.Registry, log zerolog.Logger, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		svc:      svc,
		syncer:   syncer,
		registry: registry,
		log:      log.With().Str("component", "http").Logger(),
		port:     port,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/rank-history", s.handleRankHistory)
	r.Post("/update", s.handleUpdate)
	r.Get("/upstream", s.handleUpstream)

	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Int("port", s.port).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Leaderboard(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRankHistory(w http.ResponseWriter, r *http.Request) {
	userName := r.URL.Query().Get("userName")

	if userName != "" {
		history, err := s.svc.UserHistory(r.Context(), userName)
		if errors.Is(err, leaderboard.ErrUserNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user not found"})
			return
		}
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
		return
	}

	entries, err := s.svc.LeaderboardWithHistory(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncer.Sync(r.Context())
	if errors.Is(err, leaderboard.ErrSyncInFlight) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sync already in flight"})
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	if result == nil {
		// Empty upstream snapshot, nothing reconciled.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpstream(w http.ResponseWriter, r *http.Request) {
	items, err := s.syncer.LatestRankings(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
