// Package audiocache provides a SQLite-backed cache of per-verse recitation
// audio, keyed by (reciter, surah, verse).
//
// The cache is intentionally dumb: no eviction, no TTL. The dataset is
// bounded (6236 verses per reciter) and entries are only removed when the
// user discards a downloaded surah. Read and write failures degrade to
// cache misses so playback is never blocked by storage trouble.
package audiocache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the audio cache database.
	DefaultDBPath = "data/audiocache.db"
)

// Store is the SQLite audio cache.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Stats describes cache contents for storage-usage reporting.
type Stats struct {
	Entries       int    `json:"entries"`
	TotalBytes    int64  `json:"totalBytes"`
	Reciters      int    `json:"reciters"`
	SchemaVersion string `json:"schemaVersion"`
}

// NewStore creates a new audio cache instance. Open must be called before use.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultDBPath
	}
	return &Store{path: path}
}

// Open opens the database and initializes the schema.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db

	if err := s.initSchema(); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", s.path).Msg("Audio cache opened")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// initSchema creates tables and records the schema version.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verse_audio (
		reciter_id TEXT NOT NULL,
		surah INTEGER NOT NULL,
		verse INTEGER NOT NULL,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		downloaded_at TEXT DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (reciter_id, surah, verse)
	);

	CREATE INDEX IF NOT EXISTS idx_verse_audio_surah ON verse_audio(reciter_id, surah);

	CREATE TABLE IF NOT EXISTS cache_meta (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	version := s.getMeta("schema_version")
	if version == "" {
		return s.setMeta("schema_version", CurrentSchemaVersion)
	}
	if version != CurrentSchemaVersion {
		log.Info().
			Str("current", version).
			Str("target", CurrentSchemaVersion).
			Msg("Migrating audio cache schema")
		// Add migration logic here when schema changes
		return s.setMeta("schema_version", CurrentSchemaVersion)
	}
	return nil
}

func (s *Store) getMeta(key string) string {
	var value string
	if err := s.db.QueryRow("SELECT value FROM cache_meta WHERE key = ?", key).Scan(&value); err != nil {
		return ""
	}
	return value
}

func (s *Store) setMeta(key, value string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO cache_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, value, now, value, now)
	return err
}

// Key returns the composite cache key used in logs and diagnostics.
func Key(reciterID string, surah, verse int) string {
	return fmt.Sprintf("%s_%d_%d", reciterID, surah, verse)
}

// Has reports whether audio for the verse is cached. Storage errors degrade
// to false.
func (s *Store) Has(surah, verse int, reciterID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM verse_audio WHERE reciter_id = ? AND surah = ? AND verse = ?",
		reciterID, surah, verse,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", Key(reciterID, surah, verse)).Msg("Cache existence check failed")
		return false
	}
	return true
}

// Get returns the cached audio for the verse, or nil if not cached.
// Storage errors degrade to a miss.
func (s *Store) Get(surah, verse int, reciterID string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM verse_audio WHERE reciter_id = ? AND surah = ? AND verse = ?",
		reciterID, surah, verse,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("key", Key(reciterID, surah, verse)).Msg("Cache read failed")
		return nil
	}
	return data
}

// Put upserts the audio for a verse. Caching is best-effort: failures are
// logged and swallowed so they never block playback.
func (s *Store) Put(surah, verse int, reciterID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO verse_audio (reciter_id, surah, verse, data, size, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, reciterID, surah, verse, data, len(data), time.Now().Format(time.RFC3339))
	if err != nil {
		log.Warn().Err(err).Str("key", Key(reciterID, surah, verse)).Msg("Cache write failed")
		return
	}

	log.Debug().
		Str("key", Key(reciterID, surah, verse)).
		Int("size", len(data)).
		Msg("Cached verse audio")
}

// DeleteSurah removes every cached verse of (surah, reciter).
func (s *Store) DeleteSurah(surah int, reciterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return
	}

	res, err := s.db.Exec(
		"DELETE FROM verse_audio WHERE reciter_id = ? AND surah = ?",
		reciterID, surah,
	)
	if err != nil {
		log.Warn().Err(err).Int("surah", surah).Str("reciter", reciterID).Msg("Cache delete failed")
		return
	}

	if n, err := res.RowsAffected(); err == nil {
		log.Info().Int("surah", surah).Str("reciter", reciterID).Int64("removed", n).Msg("Deleted cached surah")
	}
}

// CountForSurah returns the number of cached verses for (surah, reciter).
func (s *Store) CountForSurah(surah int, reciterID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0
	}

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM verse_audio WHERE reciter_id = ? AND surah = ?",
		reciterID, surah,
	).Scan(&count)
	if err != nil {
		log.Warn().Err(err).Int("surah", surah).Str("reciter", reciterID).Msg("Cache count failed")
		return 0
	}
	return count
}

// TotalBytes returns the sum of cached blob sizes across all entries.
func (s *Store) TotalBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0
	}

	var total sql.NullInt64
	if err := s.db.QueryRow("SELECT SUM(size) FROM verse_audio").Scan(&total); err != nil {
		log.Warn().Err(err).Msg("Cache size query failed")
		return 0
	}
	return total.Int64
}

// GetStats returns cache statistics.
func (s *Store) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	stats := &Stats{SchemaVersion: s.getMeta("schema_version")}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM verse_audio").Scan(&stats.Entries); err != nil {
		return nil, err
	}

	var total sql.NullInt64
	if err := s.db.QueryRow("SELECT SUM(size) FROM verse_audio").Scan(&total); err != nil {
		return nil, err
	}
	stats.TotalBytes = total.Int64

	if err := s.db.QueryRow("SELECT COUNT(DISTINCT reciter_id) FROM verse_audio").Scan(&stats.Reciters); err != nil {
		return nil, err
	}

	return stats, nil
}
