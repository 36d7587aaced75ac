package cache

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// SQL driver names accepted by [NewSQLCache].
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "records"

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// SQLCache stores entries in one table through sqlx:
//
//	cache_key TEXT PRIMARY KEY, data BYTEA, expires_at BIGINT
//
// expires_at is Unix nanoseconds, 0 for no expiry. Writes are upserts.
type SQLCache struct {
	db    *sqlx.DB
	table string
	owned bool
}

type sqlRow struct {
	Data      []byte `db:"data"`
	ExpiresAt int64  `db:"expires_at"`
}

// NewSQLCache opens dsn with driver ([DriverSQLite] or [DriverPostgres])
// and creates the table if needed.
func NewSQLCache(ctx context.Context, driver, dsn, table string) (*SQLCache, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported sql driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, storeError(driver, "connect", err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	c, err := NewSQLCacheFromDB(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// NewSQLCacheFromDB uses an open handle. Close does not close db.
func NewSQLCacheFromDB(ctx context.Context, db *sqlx.DB, table string) (*SQLCache, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRE.MatchString(table) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid table name %q", table)
	}
	c := &SQLCache{db: db, table: table}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	cache_key  TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0
)`, table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, storeError(db.DriverName(), "migrate", err)
	}
	return c, nil
}

// Get implements [Cache].
func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row sqlRow
	q := c.db.Rebind(fmt.Sprintf("SELECT data, expires_at FROM %s WHERE cache_key = ?", c.table))
	err := c.db.GetContext(ctx, &row, q, key)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError(c.db.DriverName(), "get", err)
	}
	if row.ExpiresAt > 0 && time.Now().UnixNano() > row.ExpiresAt {
		return nil, false, nil
	}
	return row.Data, true, nil
}

// Set implements [Cache].
func (c *SQLCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	q := c.db.Rebind(fmt.Sprintf(`INSERT INTO %s (cache_key, data, expires_at) VALUES (?, ?, ?)
ON CONFLICT (cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`, c.table))
	_, err := c.db.ExecContext(ctx, q, key, data, exp)
	return storeError(c.db.DriverName(), "set", err)
}

// Delete implements [Cache].
func (c *SQLCache) Delete(ctx context.Context, key string) error {
	q := c.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", c.table))
	_, err := c.db.ExecContext(ctx, q, key)
	return storeError(c.db.DriverName(), "delete", err)
}

// Clear implements [Clearer].
func (c *SQLCache) Clear(ctx context.Context, prefix string) (int, error) {
	q := c.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE cache_key LIKE ? ESCAPE '\'`, c.table))
	res, err := c.db.ExecContext(ctx, q, likeEscape(prefix)+"%")
	if err != nil {
		return 0, storeError(c.db.DriverName(), "clear", err)
	}
	n, err := res.RowsAffected()
	return int(n), storeError(c.db.DriverName(), "clear", err)
}

// Close closes the handle when this cache opened it.
func (c *SQLCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeEscape(s string) string { return likeReplacer.Replace(s) }

var (
	_ Cache   = (*SQLCache)(nil)
	_ Clearer = (*SQLCache)(nil)
)
