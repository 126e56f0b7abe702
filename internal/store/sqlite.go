package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS seen_urls (
	agency        TEXT NOT NULL,
	url           TEXT NOT NULL,
	first_seen_at DATETIME NOT NULL DEFAULT (datetime('now')),
	last_seen_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (agency, url)
);

CREATE INDEX IF NOT EXISTS idx_seen_urls_agency ON seen_urls(agency);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (model.SeenURLs, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT agency, url FROM seen_urls ORDER BY agency, url`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load seen urls")
	}
	defer rows.Close() //nolint:errcheck

	out := model.SeenURLs{}
	for rows.Next() {
		var agency, url string
		if err := rows.Scan(&agency, &url); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan seen url")
		}
		out[agency] = append(out[agency], url)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate seen urls")
}

// Merge upserts every (agency, url) pair in one transaction, refreshing
// last_seen_at for pairs already stored.
func (s *SQLiteStore) Merge(ctx context.Context, urls model.SeenURLs) error {
	if urls.Total() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin merge")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seen_urls (agency, url, first_seen_at, last_seen_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (agency, url) DO UPDATE SET last_seen_at = excluded.last_seen_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare merge")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for agency, list := range urls {
		for _, u := range list {
			if _, err := stmt.ExecContext(ctx, agency, u, now, now); err != nil {
				return eris.Wrapf(err, "sqlite: upsert %s", u)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit merge")
}
