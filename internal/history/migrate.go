package history

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    at           DATETIME NOT NULL,
    target_count INTEGER NOT NULL DEFAULT 0,
    ok_count     INTEGER NOT NULL DEFAULT 0,
    warn_count   INTEGER NOT NULL DEFAULT 0,
    fail_count   INTEGER NOT NULL DEFAULT 0,
    error_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id            INTEGER NOT NULL REFERENCES runs(id),
    host              TEXT NOT NULL DEFAULT '',
    port              INTEGER NOT NULL DEFAULT 0,
    category          TEXT NOT NULL DEFAULT '',
    days_until_expiry INTEGER NOT NULL DEFAULT 0,
    not_after         DATETIME,
    subject           TEXT NOT NULL DEFAULT '',
    issuer            TEXT NOT NULL DEFAULT '',
    detail            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_trend ON outcomes(host, port);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
