// Package cache provides SQLite-backed caching of build-script-impl
// argument verdicts.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog/log"

	"github.com/aallbrig/buildshim/impl"
)

// Verdict is the remembered outcome of one CheckArgs call.
type Verdict struct {
	OK        bool
	Message   string // first stderr line when !OK
	ExitCode  int
	CheckedAt time.Time
}

// Cache stores and retrieves verdicts.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at dir/cache.db.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	key        TEXT PRIMARY KEY,
	impl       TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	message    TEXT NOT NULL,
	exit_code  INTEGER NOT NULL,
	checked_at INTEGER NOT NULL
);
`

func (c *Cache) migrate() error {
	_, err := c.db.Exec(schema)
	return err
}

// cacheSchemaVersion is bumped whenever the key derivation changes, forcing
// old entries to be ignored.
const cacheSchemaVersion = "v1"

// Key derives a cache key from the executable path, its fingerprint and the
// residual arguments.
func Key(implPath, fingerprint string, args []string) string {
	s := implPath + "\x00" + fingerprint + "\x00" + strings.Join(args, "\x00") + "\x00" + cacheSchemaVersion
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:16])
}

// Get retrieves a verdict. Returns nil, nil if not found or expired.
func (c *Cache) Get(key string, maxAge time.Duration) (*Verdict, error) {
	row := c.db.QueryRow(`SELECT ok, message, exit_code, checked_at FROM verdicts WHERE key = ?`, key)
	var (
		v         Verdict
		checkedAt int64
	)
	if err := row.Scan(&v.OK, &v.Message, &v.ExitCode, &checkedAt); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	v.CheckedAt = time.Unix(checkedAt, 0)
	if maxAge > 0 && time.Since(v.CheckedAt) > maxAge {
		return nil, nil // expired
	}
	return &v, nil
}

// Put stores a verdict for implPath.
func (c *Cache) Put(key, implPath string, v Verdict) error {
	if v.CheckedAt.IsZero() {
		v.CheckedAt = time.Now()
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO verdicts (key, impl, ok, message, exit_code, checked_at) VALUES (?,?,?,?,?,?)`,
		key, implPath, v.OK, v.Message, v.ExitCode, v.CheckedAt.Unix(),
	)
	return err
}

// Delete removes an entry from the cache.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec(`DELETE FROM verdicts WHERE key = ?`, key)
	return err
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM verdicts`)
	return err
}

// ClearImpl removes all cached verdicts for one executable path.
func (c *Cache) ClearImpl(implPath string) error {
	_, err := c.db.Exec(`DELETE FROM verdicts WHERE impl = ?`, implPath)
	return err
}

// ListImpls returns the executable paths that have cached verdicts.
func (c *Cache) ListImpls() ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT impl FROM verdicts ORDER BY impl`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Wrap returns a Checker that answers from c when a fresh verdict exists and
// otherwise asks next, remembering acceptances and rejections. Invocation
// failures are passed through and never stored.
func Wrap(c *Cache, next impl.Checker, implPath, fingerprint string, maxAge time.Duration) impl.Checker {
	return impl.Func(func(ctx context.Context, args []string) error {
		key := Key(implPath, fingerprint, args)
		if v, err := c.Get(key, maxAge); err != nil {
			log.Warn().Err(err).Msg("cache read failed")
		} else if v != nil {
			log.Debug().Str("impl", implPath).Msg("cache hit")
			if v.OK {
				return nil
			}
			return &impl.ValidationError{Message: v.Message, ExitCode: v.ExitCode}
		}

		err := next.CheckArgs(ctx, args)
		var v Verdict
		var verr *impl.ValidationError
		switch {
		case err == nil:
			v = Verdict{OK: true}
		case errors.As(err, &verr):
			v = Verdict{Message: verr.Message, ExitCode: verr.ExitCode}
		default:
			return err
		}
		if putErr := c.Put(key, implPath, v); putErr != nil {
			log.Warn().Err(putErr).Msg("cache write failed")
		}
		return err
	})
}
