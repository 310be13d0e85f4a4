package resolver

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const cacheSchemaSQL = `
CREATE TABLE IF NOT EXISTS isbn_lookups (
	isbn        TEXT PRIMARY KEY,
	author      TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	resolved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Cache memoizes successful ISBN resolutions in SQLite so repeated scans
// of the same volume never hit the network twice.
type Cache struct {
	conn *sql.DB
}

// OpenCache opens (or creates) the lookup cache and applies the schema.
func OpenCache(dsn string) (*Cache, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("resolver: open cache: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolver: ping cache: %w", err)
	}
	if _, err := conn.Exec(cacheSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolver: apply cache schema: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Get returns the cached pair for isbn, reporting whether it was present.
func (c *Cache) Get(isbn string) (author, title string, ok bool) {
	row := c.conn.QueryRow(`SELECT author, title FROM isbn_lookups WHERE isbn = ?`, isbn)
	if err := row.Scan(&author, &title); err != nil {
		return "", "", false
	}
	return author, title, true
}

// Put stores a resolved pair, replacing any previous entry for isbn.
func (c *Cache) Put(isbn, author, title, source string) error {
	_, err := c.conn.Exec(
		`INSERT INTO isbn_lookups (isbn, author, title, source, resolved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(isbn) DO UPDATE SET
			author = excluded.author,
			title = excluded.title,
			source = excluded.source,
			resolved_at = excluded.resolved_at`,
		isbn, author, title, source, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolver: cache put: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}
