// internal/app/store/caches/sqlite.go
package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dalemusser/storymaker/internal/app/system/offline"
	"github.com/dalemusser/storymaker/internal/domain/models"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS Caches (Name TEXT PRIMARY KEY, CreatedAt INTEGER);
CREATE TABLE IF NOT EXISTS Entries (
	CacheName  TEXT NOT NULL,
	Key        TEXT NOT NULL,
	Method     TEXT NOT NULL,
	URL        TEXT NOT NULL,
	Status     INTEGER NOT NULL,
	StatusText TEXT,
	Header     BLOB,
	Body       BLOB,
	Type       TEXT,
	StoredAt   INTEGER,
	PRIMARY KEY (CacheName, Key)
);`

// SQLiteStore keeps caches in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Open(ctx context.Context, name string) (offline.Cache, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO Caches (Name, CreatedAt) VALUES (?, ?)",
		name, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	return &sqliteCache{name: name, db: s.db}, nil
}

func (s *SQLiteStore) Has(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Caches WHERE Name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM Caches WHERE Name = ?", name)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM Entries WHERE CacheName = ?", name); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT Name FROM Caches ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

type sqliteCache struct {
	name string
	db   *sql.DB
}

func (c *sqliteCache) Match(ctx context.Context, req *offline.Request) (*offline.Response, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return nil, offline.ErrNotFound
	}
	row := c.db.QueryRowContext(ctx,
		"SELECT Method, URL, Status, StatusText, Header, Body, Type FROM Entries WHERE CacheName = ? AND Key = ?",
		c.name, key)

	var e models.CacheEntry
	var header []byte
	var statusText, typ sql.NullString
	err = row.Scan(&e.Method, &e.URL, &e.Status, &statusText, &header, &e.Body, &typ)
	if err == sql.ErrNoRows {
		return nil, offline.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.StatusText = statusText.String
	e.Type = typ.String
	if len(header) > 0 {
		if err := json.Unmarshal(header, &e.Header); err != nil {
			return nil, err
		}
	}
	return toResponse(e), nil
}

func (c *sqliteCache) Put(ctx context.Context, req *offline.Request, resp *offline.Response) error {
	key, err := offline.CacheKey(req)
	if err != nil {
		return err
	}
	e := toEntry(c.name, key, resp)
	header, err := json.Marshal(e.Header)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
INSERT INTO Entries (CacheName, Key, Method, URL, Status, StatusText, Header, Body, Type, StoredAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (CacheName, Key) DO UPDATE SET
	Status = excluded.Status,
	StatusText = excluded.StatusText,
	Header = excluded.Header,
	Body = excluded.Body,
	Type = excluded.Type,
	StoredAt = excluded.StoredAt`,
		e.CacheName, e.Key, e.Method, e.URL, e.Status, e.StatusText, header, e.Body, e.Type, e.StoredAt.UnixNano())
	return err
}

func (c *sqliteCache) Delete(ctx context.Context, req *offline.Request) (bool, error) {
	key, err := offline.CacheKey(req)
	if err != nil {
		return false, nil
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM Entries WHERE CacheName = ? AND Key = ?", c.name, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *sqliteCache) Keys(ctx context.Context) ([]*offline.Request, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT Method, URL FROM Entries WHERE CacheName = ? ORDER BY rowid", c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*offline.Request
	for rows.Next() {
		var e models.CacheEntry
		if err := rows.Scan(&e.Method, &e.URL); err != nil {
			return nil, err
		}
		out = append(out, toRequest(e))
	}
	return out, rows.Err()
}
