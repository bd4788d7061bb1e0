package store

import (
	"context"
	"fmt"

	"github.com/elonfeng/rankradar/pkg/hiscores"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Observation is one stored score-rank event for a user.
// Rows are immutable; a user's state changes are represented by new rows.
type Observation struct {
	ID          int64  `db:"id"`
	UserName    string `db:"user_name"`
	Score       int    `db:"score"`
	Rank        int    `db:"rank"`
	UpdatedAtMs int64  `db:"updated_at_ms"`
}

// ReconcileResult reports what a reconciliation transaction changed.
type ReconcileResult struct {
	Inserted int64 `json:"inserted"`
	Removed  int64 `json:"removed"`
}

// Store is the persistence interface.
type Store interface {
	Reconcile(ctx context.Context, items []hiscores.RankItem, observedAtMs int64) (ReconcileResult, error)
	Empty(ctx context.Context) (bool, error)

	CurrentLeaderboard(ctx context.Context) ([]Observation, error)
	UserHistory(ctx context.Context, userName string) ([]Observation, error)
	AllHistory(ctx context.Context) ([]Observation, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reconcile applies one fetched snapshot inside a single transaction:
// insert a row per item (duplicates on user/rank/score are dropped), then
// prune every user absent from the snapshot. An empty snapshot is a no-op;
// the prune never runs against zero fetched rows.
func (s *SQLiteStore) Reconcile(ctx context.Context, items []hiscores.RankItem, observedAtMs int64) (ReconcileResult, error) {
	var result ReconcileResult
	if len(items) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO score_updates (user_name, score, rank, updated_at_ms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_name, rank, score) DO NOTHING
		`, item.Name, item.Score, item.Rank, observedAtMs)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("insert observation %s: %w", item.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("insert observation %s: %w", item.Name, err)
		}
		result.Inserted += n
	}

	tracked := make([]string, len(items))
	for i, item := range items {
		tracked[i] = item.Name
	}

	query, args, err := sqlx.In("DELETE FROM score_updates WHERE user_name NOT IN (?)", tracked)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("build prune query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("prune untracked users: %w", err)
	}
	result.Removed, err = res.RowsAffected()
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("prune untracked users: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ReconcileResult{}, fmt.Errorf("commit reconcile: %w", err)
	}
	return result, nil
}

// Empty reports whether the event table has no rows.
func (s *SQLiteStore) Empty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM score_updates"); err != nil {
		return false, fmt.Errorf("count observations: %w", err)
	}
	return count == 0, nil
}

// CurrentLeaderboard returns the latest observation per user, ordered by
// rank ascending. Ties on updated_at_ms break toward the highest id.
func (s *SQLiteStore) CurrentLeaderboard(ctx context.Context) ([]Observation, error) {
	var rows []Observation
	err := s.db.SelectContext(ctx, &rows, `
		WITH latest AS (
			SELECT id, user_name, score, rank, updated_at_ms,
			       ROW_NUMBER() OVER (
			           PARTITION BY user_name
			           ORDER BY updated_at_ms DESC, id DESC
			       ) AS rn
			FROM score_updates
		)
		SELECT id, user_name, score, rank, updated_at_ms
		FROM latest
		WHERE rn = 1
		ORDER BY rank ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("current leaderboard: %w", err)
	}
	return rows, nil
}

// UserHistory returns all observations for one user, most recent first.
// An unknown user yields an empty slice, not an error.
func (s *SQLiteStore) UserHistory(ctx context.Context, userName string) ([]Observation, error) {
	var rows []Observation
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_name, score, rank, updated_at_ms
		FROM score_updates
		WHERE user_name = ?
		ORDER BY updated_at_ms DESC, id DESC
	`, userName)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", userName, err)
	}
	return rows, nil
}

// AllHistory returns every observation, most recent first. Callers group
// rows per user.
func (s *SQLiteStore) AllHistory(ctx context.Context) ([]Observation, error) {
	var rows []Observation
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_name, score, rank, updated_at_ms
		FROM score_updates
		ORDER BY updated_at_ms DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("all history: %w", err)
	}
	return rows, nil
}

var _ Store = (*SQLiteStore)(nil)
