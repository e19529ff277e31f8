package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a persistent Store backed by an embedded SQLite database, for
// long-running hosts that should keep resolved metadata across restarts.
// The on-disk format is an internal contract, not a public file format.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLite)(nil)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ref_cache (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	stored_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ref_cache_expires_at ON ref_cache(expires_at);
`

// NewSQLite opens (or creates) the cache database at the given path and
// runs the schema migration. WAL mode keeps concurrent hover reads cheap.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache db pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// WithNow sets the clock, for tests.
func (s *SQLite) WithNow(now func() time.Time) *SQLite {
	s.now = now
	return s
}

// Get implements Store. Expired rows are deleted on read.
func (s *SQLite) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var (
		payload   string
		storedAt  time.Time
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at, expires_at FROM ref_cache WHERE key = ?`, key,
	).Scan(&payload, &storedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}

	entry := Entry{StoredAt: storedAt, ExpiresAt: expiresAt}
	if entry.Expired(s.now()) {
		if err := s.Invalidate(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		// A corrupt row is treated as a miss and dropped.
		_ = s.Invalidate(ctx, key)
		return nil, false, nil
	}
	entry.StoredAt = storedAt
	entry.ExpiresAt = expiresAt
	return &entry, true, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	now := s.now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ref_cache (key, payload, stored_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload,
		 	stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, string(payload), entry.StoredAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Invalidate implements Store.
func (s *SQLite) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ref_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", key, err)
	}
	return nil
}

// PurgeExpired removes all expired rows and returns the count. Hosts may run
// this periodically; correctness never depends on it because expiry is also
// checked on Get.
func (s *SQLite) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ref_cache WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
