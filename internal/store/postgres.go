package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/JodusNodus/apartment-eagle/internal/db"
	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to connString and pings the server.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS seen_urls (
	agency        TEXT NOT NULL,
	url           TEXT NOT NULL,
	first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (agency, url)
);

CREATE INDEX IF NOT EXISTS idx_seen_urls_agency ON seen_urls(agency);
`

var seenUpsert = db.UpsertConfig{
	Table:        "seen_urls",
	Columns:      []string{"agency", "url", "last_seen_at"},
	ConflictKeys: []string{"agency", "url"},
	UpdateCols:   []string{"last_seen_at"},
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (model.SeenURLs, error) {
	rows, err := s.pool.Query(ctx, `SELECT agency, url FROM seen_urls ORDER BY agency, url`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load seen urls")
	}
	defer rows.Close()

	out := model.SeenURLs{}
	for rows.Next() {
		var agency, url string
		if err := rows.Scan(&agency, &url); err != nil {
			return nil, eris.Wrap(err, "postgres: scan seen url")
		}
		out[agency] = append(out[agency], url)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate seen urls")
}

func (s *PostgresStore) Merge(ctx context.Context, urls model.SeenURLs) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, urls.Total())
	for agency, list := range urls {
		for _, u := range list {
			rows = append(rows, []any{agency, u, now})
		}
	}

	_, err := db.BulkUpsert(ctx, s.pool, seenUpsert, rows)
	return eris.Wrap(err, "postgres: merge seen urls")
}
