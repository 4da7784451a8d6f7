package audiocache_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dscarebd/quran-insight-sub003/internal/infra/audiocache"
)

func openTestStore(t *testing.T) *audiocache.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "audiocache_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store := audiocache.NewStore(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOpenCreatesFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "audiocache_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")
	store := audiocache.NewStore(dbPath)

	if err := store.Open(); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist after Open()")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	audio := []byte("mp3-bytes-for-al-fatiha-1")
	store.Put(1, 1, "alafasy", audio)

	if !store.Has(1, 1, "alafasy") {
		t.Error("Has should report true after Put")
	}

	got := store.Get(1, 1, "alafasy")
	if !bytes.Equal(got, audio) {
		t.Errorf("Get returned %q, want %q", got, audio)
	}
}

func TestGetMiss(t *testing.T) {
	store := openTestStore(t)

	if store.Has(2, 255, "alafasy") {
		t.Error("Has should report false for uncached verse")
	}
	if got := store.Get(2, 255, "alafasy"); got != nil {
		t.Errorf("Get should return nil for uncached verse, got %d bytes", len(got))
	}
}

func TestPutIsIdempotentUpsert(t *testing.T) {
	store := openTestStore(t)

	store.Put(2, 255, "alafasy", []byte("first"))
	store.Put(2, 255, "alafasy", []byte("second"))

	if got := store.CountForSurah(2, "alafasy"); got != 1 {
		t.Errorf("expected exactly 1 entry after double Put, got %d", got)
	}
	if got := store.Get(2, 255, "alafasy"); string(got) != "second" {
		t.Errorf("second blob should win, got %q", got)
	}
}

func TestKeysAreIndependentPerReciter(t *testing.T) {
	store := openTestStore(t)

	store.Put(1, 1, "alafasy", []byte("a"))
	store.Put(1, 1, "sudais", []byte("b"))

	if got := store.Get(1, 1, "sudais"); string(got) != "b" {
		t.Errorf("expected reciter-scoped entry, got %q", got)
	}
	if got := store.CountForSurah(1, "alafasy"); got != 1 {
		t.Errorf("expected 1 entry for alafasy, got %d", got)
	}
}

func TestCountForSurah(t *testing.T) {
	store := openTestStore(t)

	for verse := 1; verse <= 7; verse++ {
		store.Put(1, verse, "husary", []byte{byte(verse)})
	}
	store.Put(2, 1, "husary", []byte("x"))

	if got := store.CountForSurah(1, "husary"); got != 7 {
		t.Errorf("expected 7 cached verses, got %d", got)
	}
	if got := store.CountForSurah(2, "husary"); got != 1 {
		t.Errorf("expected 1 cached verse, got %d", got)
	}
	if got := store.CountForSurah(3, "husary"); got != 0 {
		t.Errorf("expected 0 cached verses, got %d", got)
	}
}

func TestDeleteSurah(t *testing.T) {
	store := openTestStore(t)

	for verse := 1; verse <= 110; verse++ {
		store.Put(18, verse, "sudais", []byte{byte(verse)})
	}
	store.Put(18, 1, "alafasy", []byte("keep"))

	store.DeleteSurah(18, "sudais")

	if got := store.CountForSurah(18, "sudais"); got != 0 {
		t.Errorf("expected 0 entries after delete, got %d", got)
	}
	// Other reciters' entries for the same surah survive
	if got := store.CountForSurah(18, "alafasy"); got != 1 {
		t.Errorf("expected alafasy entry to survive, got %d", got)
	}
}

func TestTotalBytes(t *testing.T) {
	store := openTestStore(t)

	if got := store.TotalBytes(); got != 0 {
		t.Errorf("empty cache should report 0 bytes, got %d", got)
	}

	store.Put(1, 1, "alafasy", make([]byte, 100))
	store.Put(1, 2, "alafasy", make([]byte, 250))

	if got := store.TotalBytes(); got != 350 {
		t.Errorf("expected 350 bytes, got %d", got)
	}

	// Overwrite replaces, not adds
	store.Put(1, 1, "alafasy", make([]byte, 50))
	if got := store.TotalBytes(); got != 300 {
		t.Errorf("expected 300 bytes after overwrite, got %d", got)
	}
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)

	store.Put(1, 1, "alafasy", make([]byte, 10))
	store.Put(1, 2, "alafasy", make([]byte, 10))
	store.Put(1, 1, "sudais", make([]byte, 10))

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.Entries != 3 {
		t.Errorf("expected 3 entries, got %d", stats.Entries)
	}
	if stats.TotalBytes != 30 {
		t.Errorf("expected 30 bytes, got %d", stats.TotalBytes)
	}
	if stats.Reciters != 2 {
		t.Errorf("expected 2 reciters, got %d", stats.Reciters)
	}
	if stats.SchemaVersion != audiocache.CurrentSchemaVersion {
		t.Errorf("unexpected schema version %q", stats.SchemaVersion)
	}
}

func TestClosedStoreFailsOpen(t *testing.T) {
	store := openTestStore(t)
	store.Close()

	// All reads degrade to misses, writes are no-ops
	if store.Has(1, 1, "alafasy") {
		t.Error("Has on closed store should be false")
	}
	if store.Get(1, 1, "alafasy") != nil {
		t.Error("Get on closed store should be nil")
	}
	store.Put(1, 1, "alafasy", []byte("x")) // must not panic
	store.DeleteSurah(1, "alafasy")         // must not panic
	if store.CountForSurah(1, "alafasy") != 0 {
		t.Error("CountForSurah on closed store should be 0")
	}
}

func TestKey(t *testing.T) {
	if got := audiocache.Key("alafasy", 2, 255); got != "alafasy_2_255" {
		t.Errorf("unexpected key %q", got)
	}
}
