// Package bookmarks persists per-verse bookmarks in a BoltDB file.
package bookmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
)

// ErrNotFound is returned when removing a bookmark that does not exist.
var ErrNotFound = errors.New("bookmark not found")

var bucketBookmarks = []byte("bookmarks")

// DefaultDBPath is the bookmark database location relative to the
// working directory.
const DefaultDBPath = "data/bookmarks.db"

// Bookmark marks a single verse, optionally annotated.
type Bookmark struct {
	Surah     int       `json:"surah"`
	Verse     int       `json:"verse"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a BoltDB-backed bookmark store. One bookmark per verse;
// re-adding a bookmarked verse updates its note.
type Store struct {
	db *bolt.DB
}

// Open creates parent directories, opens the database and ensures the
// bucket exists.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create bookmark directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBookmarks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("Bookmark store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// verseKey yields a lexicographically sortable key per verse.
func verseKey(surah, verse int) []byte {
	return []byte(fmt.Sprintf("%03d:%03d", surah, verse))
}

// Add bookmarks a verse. Adding an already-bookmarked verse replaces
// its note but keeps the original creation time.
func (s *Store) Add(surah, verse int, note string) (Bookmark, error) {
	if err := quran.Validate(surah, verse); err != nil {
		return Bookmark{}, err
	}

	bm := Bookmark{
		Surah:     surah,
		Verse:     verse,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBookmarks)
		key := verseKey(surah, verse)

		if existing := b.Get(key); existing != nil {
			var prev Bookmark
			if json.Unmarshal(existing, &prev) == nil {
				bm.CreatedAt = prev.CreatedAt
			}
		}

		data, err := json.Marshal(bm)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return Bookmark{}, err
	}
	return bm, nil
}

// Get returns the bookmark for a verse, if any.
func (s *Store) Get(surah, verse int) (Bookmark, bool) {
	var bm Bookmark
	found := false
	s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBookmarks).Get(verseKey(surah, verse))
		if v != nil && json.Unmarshal(v, &bm) == nil {
			found = true
		}
		return nil
	})
	return bm, found
}

// List returns all bookmarks ordered by surah then verse.
func (s *Store) List() ([]Bookmark, error) {
	var out []Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketBookmarks).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var bm Bookmark
			if err := json.Unmarshal(v, &bm); err != nil {
				log.Warn().Str("key", string(k)).Msg("Skipping corrupt bookmark entry")
				continue
			}
			out = append(out, bm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surah != out[j].Surah {
			return out[i].Surah < out[j].Surah
		}
		return out[i].Verse < out[j].Verse
	})
	return out, nil
}

// ListForSurah returns the surah's bookmarks ordered by verse.
func (s *Store) ListForSurah(surah int) ([]Bookmark, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, bm := range all {
		if bm.Surah == surah {
			out = append(out, bm)
		}
	}
	return out, nil
}

// Remove deletes a verse's bookmark.
func (s *Store) Remove(surah, verse int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBookmarks)
		key := verseKey(surah, verse)
		if b.Get(key) == nil {
			return ErrNotFound
		}
		return b.Delete(key)
	})
}
