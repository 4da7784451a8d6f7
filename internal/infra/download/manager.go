package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
)

// ErrDownloadInProgress is returned when a surah download is requested
// while another one is still running.
var ErrDownloadInProgress = errors.New("a download is already in progress")

// Cache is the verse audio store the manager fills and queries.
type Cache interface {
	Has(surah, verse int, reciterID string) bool
	Put(surah, verse int, reciterID string, data []byte)
	CountForSurah(surah int, reciterID string) int
	DeleteSurah(surah int, reciterID string)
}

// Fetcher retrieves verse audio over the network.
type Fetcher interface {
	FetchVerse(ctx context.Context, folder string, surah, verse int) ([]byte, error)
}

// FolderResolver maps a reciter ID to its remote folder name.
type FolderResolver interface {
	Folder(id string) (string, error)
}

// Progress is a snapshot of the running (or last finished) download.
type Progress struct {
	Surah       int    `json:"surah"`
	ReciterID   string `json:"reciterId"`
	Total       int    `json:"total"`
	Downloaded  int    `json:"downloaded"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	InProgress  bool   `json:"inProgress"`
	CurrentFile string `json:"currentFile,omitempty"`
	Err         string `json:"error,omitempty"`
}

// ProgressFunc receives a snapshot after every verse completes and once
// more when the download ends.
type ProgressFunc func(Progress)

// Option is a functional option for configuring the manager.
type Option func(*Manager)

// WithProgressFunc sets the per-verse progress callback.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(m *Manager) {
		m.onProgress = fn
	}
}

// WithPause sets the delay inserted between verse fetches.
func WithPause(d time.Duration) Option {
	return func(m *Manager) {
		m.pause = d
	}
}

// Manager downloads surahs verse by verse into the cache. Downloads
// run strictly sequentially: one verse at a time, one surah at a time.
type Manager struct {
	cache      Cache
	source     Fetcher
	reciters   FolderResolver
	onProgress ProgressFunc
	pause      time.Duration

	mu       sync.Mutex
	running  bool
	progress Progress
}

// NewManager creates a download manager.
func NewManager(cache Cache, source Fetcher, reciters FolderResolver, opts ...Option) *Manager {
	m := &Manager{
		cache:    cache,
		source:   source,
		reciters: reciters,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnProgress registers the progress callback after construction. Call
// it before the first download.
func (m *Manager) OnProgress(fn ProgressFunc) {
	m.onProgress = fn
}

// DownloadSurah fetches every verse of the surah into the cache,
// skipping verses already present. It blocks until the surah is
// complete or the first fetch fails, which aborts the remainder.
// Already-cached verses make an interrupted download resumable.
func (m *Manager) DownloadSurah(ctx context.Context, surah int, reciterID string) error {
	total, err := quran.VerseCount(surah)
	if err != nil {
		return err
	}
	folder, err := m.reciters.Folder(reciterID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrDownloadInProgress
	}
	m.running = true
	m.progress = Progress{
		Surah:      surah,
		ReciterID:  reciterID,
		Total:      total,
		InProgress: true,
	}
	m.mu.Unlock()

	log.Info().
		Int("surah", surah).
		Str("reciter", reciterID).
		Int("verses", total).
		Msg("Surah download started")

	err = m.run(ctx, surah, total, folder, reciterID)

	m.mu.Lock()
	m.running = false
	m.progress.InProgress = false
	m.progress.CurrentFile = ""
	if err != nil {
		m.progress.Err = err.Error()
	}
	final := m.progress
	m.mu.Unlock()
	m.emit(final)

	if err != nil {
		log.Warn().
			Err(err).
			Int("surah", surah).
			Int("downloaded", final.Downloaded).
			Msg("Surah download aborted")
		return err
	}

	log.Info().
		Int("surah", surah).
		Int("downloaded", final.Downloaded).
		Int("skipped", final.Skipped).
		Msg("Surah download complete")
	return nil
}

func (m *Manager) run(ctx context.Context, surah, total int, folder, reciterID string) error {
	for verse := 1; verse <= total; verse++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if m.cache.Has(surah, verse, reciterID) {
			m.advance(func(p *Progress) { p.Skipped++ })
			continue
		}

		m.advance(func(p *Progress) {
			p.CurrentFile = fmt.Sprintf("%03d%03d.mp3", surah, verse)
		})

		data, err := m.source.FetchVerse(ctx, folder, surah, verse)
		if err != nil {
			m.mu.Lock()
			m.progress.Failed++
			m.mu.Unlock()
			return fmt.Errorf("verse %d:%d: %w", surah, verse, err)
		}
		m.cache.Put(surah, verse, reciterID, data)

		m.advance(func(p *Progress) { p.Downloaded++ })

		if m.pause > 0 && verse < total {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}
	return nil
}

// advance mutates the progress snapshot under lock and notifies.
func (m *Manager) advance(mutate func(*Progress)) {
	m.mu.Lock()
	mutate(&m.progress)
	p := m.progress
	m.mu.Unlock()
	m.emit(p)
}

func (m *Manager) emit(p Progress) {
	if m.onProgress != nil {
		m.onProgress(p)
	}
}

// Progress returns the snapshot of the running or last finished download.
func (m *Manager) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// IsRunning reports whether a download is in flight.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// IsSurahDownloaded reports whether every verse of the surah is cached.
func (m *Manager) IsSurahDownloaded(surah int, reciterID string) bool {
	total, err := quran.VerseCount(surah)
	if err != nil {
		return false
	}
	return m.cache.CountForSurah(surah, reciterID) >= total
}

// CachedVerses returns how many verses of the surah are cached and the
// surah's verse total.
func (m *Manager) CachedVerses(surah int, reciterID string) (cached, total int, err error) {
	total, err = quran.VerseCount(surah)
	if err != nil {
		return 0, 0, err
	}
	return m.cache.CountForSurah(surah, reciterID), total, nil
}

// DeleteSurah removes all cached verses of the surah for the reciter.
func (m *Manager) DeleteSurah(surah int, reciterID string) error {
	if _, err := quran.VerseCount(surah); err != nil {
		return err
	}
	m.cache.DeleteSurah(surah, reciterID)
	log.Info().Int("surah", surah).Str("reciter", reciterID).Msg("Cached surah deleted")
	return nil
}
