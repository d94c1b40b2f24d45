package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// fixed-width so timestamps sort lexically
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

var lockRetryDelays = []time.Duration{10 * time.Millisecond, 25 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}

// Store is the sqlite write-through layer behind Cache, so a warm cache
// survives restarts. It holds a single connection.
type Store struct {
	path string
	mu   sync.Mutex
	db   *sql.DB
}

func OpenStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("fetch cache path must not be empty")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("fetch cache path %q is a directory", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create fetch cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fetch cache %q: %w", path, err)
	}
	return &Store{path: path, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save inserts or replaces the stored response for resp.URL.
func (s *Store) Save(resp Response) error {
	return s.exec("save response", `
INSERT INTO responses (url, status, content_type, body, fetched_at_utc)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
  status = excluded.status,
  content_type = excluded.content_type,
  body = excluded.body,
  fetched_at_utc = excluded.fetched_at_utc`,
		resp.URL, resp.Status, resp.ContentType, resp.Body, formatStoredTime(resp.FetchedAt))
}

func (s *Store) Delete(url string) error {
	return s.exec("delete response", `DELETE FROM responses WHERE url = ?`, url)
}

// Prune removes responses fetched at or before cutoff.
func (s *Store) Prune(cutoff time.Time) error {
	return s.exec("prune responses", `DELETE FROM responses WHERE fetched_at_utc <= ?`, formatStoredTime(cutoff))
}

// Load returns up to limit entries fetched after since, oldest first, so
// they can be replayed into a FIFO cache in insertion order.
func (s *Store) Load(since time.Time, limit int) ([]Response, error) {
	var out []Response
	err := s.locked("load responses", func() error {
		out = out[:0]
		rows, err := s.db.Query(`
SELECT url, status, content_type, body, fetched_at_utc FROM (
  SELECT * FROM responses WHERE fetched_at_utc > ? ORDER BY fetched_at_utc DESC LIMIT ?
) ORDER BY fetched_at_utc ASC`, formatStoredTime(since), limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				resp Response
				ts   string
			)
			if err := rows.Scan(&resp.URL, &resp.Status, &resp.ContentType, &resp.Body, &ts); err != nil {
				return err
			}
			if resp.FetchedAt, err = time.Parse(storedTimeLayout, ts); err != nil {
				return fmt.Errorf("stored response %q: %w", resp.URL, err)
			}
			out = append(out, resp)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) exec(op, query string, args ...any) error {
	return s.locked(op, func() error {
		_, err := s.db.Exec(query, args...)
		return err
	})
}

// locked serializes fn and retries it while another process holds the
// database lock.
func (s *Store) locked(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn()
	for _, delay := range lockRetryDelays {
		if err == nil || !isBusy(err) {
			break
		}
		time.Sleep(delay)
		err = fn()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}
