// Package cache stores rendered listings in SQLite, keyed by the content
// hash of the decompiled unit and the options it was rendered with.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("movedc.cache")

// ErrNotFound indicates the requested listing is not cached.
var ErrNotFound = errors.New("cache: listing not found")

// Key identifies one rendered listing.
type Key struct {
	Hash    [32]byte
	Options string
}

func (k Key) String() string {
	return hex.EncodeToString(k.Hash[:8]) + "/" + k.Options
}

// Entry is a cached listing.
type Entry struct {
	Key     Key
	Source  string
	Created time.Time
}

// Cache handles SQLite storage for rendered listings.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS listings (
		hash TEXT NOT NULL,
		options TEXT NOT NULL,
		source TEXT NOT NULL,
		created INTEGER NOT NULL,
		PRIMARY KEY (hash, options)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Cache{db: db, path: path}, nil
}

// Path returns the database path.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the listing stored under key.
func (c *Cache) Get(ctx context.Context, key Key) (*Entry, error) {
	var source string
	var created int64
	err := c.db.QueryRowContext(ctx,
		"SELECT source, created FROM listings WHERE hash = ? AND options = ?",
		hex.EncodeToString(key.Hash[:]), key.Options,
	).Scan(&source, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("miss %s", key)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying listing: %w", err)
	}
	log.Debugf("hit %s", key)
	return &Entry{Key: key, Source: source, Created: time.Unix(created, 0)}, nil
}

// Put stores source under key, replacing any previous listing.
func (c *Cache) Put(ctx context.Context, key Key, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO listings (hash, options, source, created) VALUES (?, ?, ?, ?)",
		hex.EncodeToString(key.Hash[:]), key.Options, source, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving listing: %w", err)
	}
	return nil
}

// Delete removes every listing of the unit with the given hash.
func (c *Cache) Delete(ctx context.Context, hash [32]byte) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM listings WHERE hash = ?", hex.EncodeToString(hash[:]))
	if err != nil {
		return 0, fmt.Errorf("deleting listings: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes listings created before cutoff.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM listings WHERE created < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning listings: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n > 0 {
		log.Infof("pruned %d listings", n)
	}
	return n, err
}

// Len returns the number of cached listings.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return n, nil
}
