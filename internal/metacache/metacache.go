// Package metacache keeps extracted media metadata in SQLite so repeated
// requests for the same URL skip the extractor.
package metacache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/wavecast/internal/db"
	"github.com/llehouerou/wavecast/internal/downloader"
)

const DBFileName = "metadata.db"

const schema = `
	CREATE TABLE IF NOT EXISTS media_info (
		url TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		page_url TEXT,
		duration INTEGER,
		uploader TEXT,
		uploader_url TEXT,
		thumbnail TEXT,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_media_info_fetched ON media_info(fetched_at);
`

// Store is a TTL cache of downloader.Info keyed by request URL.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	hits   int
	misses int
}

// Open opens (or creates) the cache database at path.
func Open(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s, err := New(conn, ttl)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the schema if needed.
func New(conn *sql.DB, ttl time.Duration) (*Store, error) {
	if _, err := conn.Exec(schema); err != nil {
		return nil, err
	}
	return &Store{db: conn, ttl: ttl, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) isExpired(fetchedAt int64) bool {
	return fetchedAt < s.now().Add(-s.ttl).Unix()
}

// Get returns the cached metadata for url if present and fresh.
// Lookup errors count as misses.
func (s *Store) Get(url string) (*downloader.Info, bool) {
	var info downloader.Info
	var pageURL, uploader, upURL, thumb sql.NullString
	var duration sql.NullInt64
	var fetchedAt int64
	err := s.db.QueryRow(`
		SELECT id, title, page_url, duration, uploader, uploader_url, thumbnail, fetched_at
		FROM media_info
		WHERE url = ?
	`, url).Scan(&info.ID, &info.Title, &pageURL, &duration, &uploader, &upURL, &thumb, &fetchedAt)
	if err != nil || s.isExpired(fetchedAt) {
		s.record(false)
		return nil, false
	}

	info.URL = db.NullStringValue(pageURL)
	info.Duration = int(db.NullInt64Value(duration))
	info.Uploader = db.NullStringValue(uploader)
	info.UploaderURL = db.NullStringValue(upURL)
	info.Thumbnail = db.NullStringValue(thumb)

	s.record(true)
	return &info, true
}

// Set stores metadata for url and drops expired rows.
func (s *Store) Set(url string, info downloader.Info) error {
	return db.WithTx(context.Background(), s.db, func(tx *sql.Tx) error {
		now := s.now()
		if _, err := tx.Exec(`DELETE FROM media_info WHERE fetched_at < ?`,
			now.Add(-s.ttl).Unix()); err != nil {
			return err
		}

		var duration sql.NullInt64
		if info.Duration > 0 {
			duration = sql.NullInt64{Int64: int64(info.Duration), Valid: true}
		}
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO media_info
				(url, id, title, page_url, duration, uploader, uploader_url, thumbnail, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, url, info.ID, info.Title, db.NullString(info.URL), duration,
			db.NullString(info.Uploader), db.NullString(info.UploaderURL),
			db.NullString(info.Thumbnail), now.Unix())
		return err
	})
}

// Purge deletes expired rows and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_info WHERE fetched_at < ?`,
		s.now().Add(-s.ttl).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats returns hit and miss counts since creation.
func (s *Store) Stats() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

func (s *Store) record(hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
}

var _ downloader.InfoCache = (*Store)(nil)
