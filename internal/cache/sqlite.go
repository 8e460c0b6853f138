package cache

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Cache backed by a local sqlite file, so cached pages survive a
// console relaunch. Errors are swallowed: a cache miss is always an acceptable
// answer, and the console must not fail because its cache did.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (creating if needed) a cache database at path. A zero TTL
// means entries never expire.
func OpenSQLite(ctx context.Context, path string, ttl time.Duration) (*SQLite, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid
	// "database is locked" flakiness when two consoles share a workspace dir.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS cache (
		k TEXT PRIMARY KEY,
		v BLOB NOT NULL,
		expires_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(key string) ([]byte, bool) {
	var v []byte
	var expMS int64
	err := s.db.QueryRow(`SELECT v, expires_at_unixms FROM cache WHERE k = ?`, key).Scan(&v, &expMS)
	if err != nil {
		return nil, false
	}
	if expMS > 0 && s.now().UnixMilli() > expMS {
		_, _ = s.db.Exec(`DELETE FROM cache WHERE k = ?`, key)
		return nil, false
	}
	return v, true
}

func (s *SQLite) Set(key string, value []byte) {
	var expMS int64
	if s.ttl > 0 {
		expMS = s.now().Add(s.ttl).UnixMilli()
	}
	_, _ = s.db.Exec(`INSERT INTO cache(k, v, expires_at_unixms) VALUES(?, ?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at_unixms = excluded.expires_at_unixms`,
		key, value, expMS)
}

func (s *SQLite) Invalidate(prefix string) {
	// ESCAPE so keys containing % or _ cannot widen the match.
	pat := escapeLike(prefix) + "%"
	_, _ = s.db.Exec(`DELETE FROM cache WHERE k LIKE ? ESCAPE '\'`, pat)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
