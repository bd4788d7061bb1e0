package store

const schema = `
CREATE TABLE IF NOT EXISTS score_updates (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_name     TEXT    NOT NULL,
    score         INTEGER NOT NULL,
    rank          INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL,
    UNIQUE(user_name, rank, score)
);

CREATE INDEX IF NOT EXISTS idx_score_updates_user ON score_updates(user_name);
CREATE INDEX IF NOT EXISTS idx_score_updates_updated ON score_updates(updated_at_ms);
`
