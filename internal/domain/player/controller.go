package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dscarebd/quran-insight-sub003/internal/audio"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
)

// ErrInvalidABRange indicates an AB end bound below the start bound.
var ErrInvalidABRange = errors.New("ab repeat end must not precede start")

// DefaultProgressInterval is how often position is sampled while playing.
const DefaultProgressInterval = 250 * time.Millisecond

// Cache is the verse audio cache consumed by the controller. Reads and
// writes are fail-open; a miss and a storage error look the same.
type Cache interface {
	Get(surah, verse int, reciterID string) []byte
	Put(surah, verse int, reciterID string, data []byte)
}

// Fetcher downloads verse audio from the remote archive.
type Fetcher interface {
	FetchVerse(ctx context.Context, folder string, surah, verse int) ([]byte, error)
}

// FolderResolver maps a reciter ID to its archive folder.
type FolderResolver interface {
	Folder(id string) (string, error)
}

// Controller owns what verse is audible right now. It keeps exactly one
// live audio handle; starting a new verse always tears down the previous
// one first. All state mutation goes through its operations.
type Controller struct {
	cache    Cache
	source   Fetcher
	reciters FolderResolver
	sink     audio.Sink

	autoPlayNext     bool
	progressInterval time.Duration
	notify           func(State)

	mu           sync.Mutex
	state        State
	gen          uint64
	handle       audio.Playback
	stopProgress chan struct{}
}

// Option configures the controller.
type Option func(*Controller)

// WithAutoPlayNext enables automatic advance to the next verse when repeat
// mode is off.
func WithAutoPlayNext(on bool) Option {
	return func(c *Controller) {
		c.autoPlayNext = on
	}
}

// WithProgressInterval sets the position sampling interval.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.progressInterval = d
	}
}

// WithStateListener registers a callback invoked (outside the controller
// lock) after every state change.
func WithStateListener(fn func(State)) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// WithReciter sets the initial reciter.
func WithReciter(id string) Option {
	return func(c *Controller) {
		c.state.ReciterID = id
	}
}

// NewController creates a playback controller.
func NewController(cache Cache, source Fetcher, reciters FolderResolver, sink audio.Sink, opts ...Option) *Controller {
	c := &Controller{
		cache:            cache,
		source:           source,
		reciters:         reciters,
		sink:             sink,
		progressInterval: DefaultProgressInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// OnStateChange registers the state listener after construction, for
// wiring where the listener itself depends on the controller. Call it
// before the first play request.
func (c *Controller) OnStateChange(fn func(State)) {
	c.notify = fn
}

// State returns a snapshot of the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetReciter switches the active reciter for subsequent play requests.
func (c *Controller) SetReciter(id string) error {
	if _, err := c.reciters.Folder(id); err != nil {
		return err
	}

	c.mu.Lock()
	c.state.ReciterID = id
	st := c.state
	c.mu.Unlock()

	log.Info().Str("reciter", id).Msg("Reciter changed")
	c.emit(st)
	return nil
}

// PlayVerse starts playback of the given verse, tearing down any playback
// in flight. The audio source is resolved cache-first with network
// fallback; on a cache miss the fetched bytes are cached in the background
// after the verse completes. total may be 0, in which case the surah's
// verse count is looked up.
//
// Load and playback failures are recorded as a non-fatal error in the
// state (transitioning to idle) and also returned.
func (c *Controller) PlayVerse(surah, verse, total int) error {
	if err := quran.Validate(surah, verse); err != nil {
		return err
	}
	if total <= 0 {
		total, _ = quran.VerseCount(surah)
	}

	c.mu.Lock()
	gen := c.supersedeLocked()
	c.state.IsLoading = true
	c.state.IsPlaying = false
	c.state.Surah = surah
	c.state.Verse = verse
	c.state.TotalVerses = total
	c.state.Progress = 0
	c.state.Duration = 0
	c.state.FromCache = false
	c.state.Err = ""
	reciterID := c.state.ReciterID
	st := c.state
	c.mu.Unlock()
	c.emit(st)

	data, fromCache, err := c.resolveSource(surah, verse, reciterID)
	if err != nil {
		return c.failLoad(gen, err)
	}

	handle, err := c.sink.Play(data)
	if err != nil {
		return c.failLoad(gen, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// Superseded while loading; the freshly fetched bytes are still
		// worth caching since the cache is idempotent per key.
		c.mu.Unlock()
		handle.Stop()
		if !fromCache {
			go c.cache.Put(surah, verse, reciterID, data)
		}
		return nil
	}

	c.handle = handle
	c.state.IsLoading = false
	c.state.IsPlaying = true
	c.state.Duration = handle.Duration().Seconds()
	c.state.FromCache = fromCache
	c.startProgressLocked(gen, handle)
	st = c.state
	c.mu.Unlock()
	c.emit(st)

	log.Debug().
		Int("surah", surah).
		Int("verse", verse).
		Str("reciter", reciterID).
		Bool("fromCache", fromCache).
		Msg("Playback started")

	go c.watch(gen, handle, surah, verse, total, reciterID, data, fromCache)
	return nil
}

// TogglePlay toggles pause/resume if the verse is already current,
// otherwise behaves as PlayVerse.
func (c *Controller) TogglePlay(surah, verse, total int) error {
	c.mu.Lock()
	current := c.handle != nil && c.state.Surah == surah && c.state.Verse == verse
	playing := c.state.IsPlaying
	c.mu.Unlock()

	if !current {
		return c.PlayVerse(surah, verse, total)
	}
	if playing {
		c.Pause()
	} else {
		c.Resume()
	}
	return nil
}

// Pause suspends playback. No-op if no verse is loaded.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.handle == nil || !c.state.IsPlaying {
		c.mu.Unlock()
		return
	}
	c.handle.Pause()
	c.state.IsPlaying = false
	c.state.Progress = c.handle.Position().Seconds()
	c.stopProgressLocked()
	st := c.state
	c.mu.Unlock()
	c.emit(st)
}

// Resume continues paused playback. No-op if no verse is loaded.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.handle == nil || c.state.IsPlaying {
		c.mu.Unlock()
		return
	}
	c.handle.Resume()
	c.state.IsPlaying = true
	c.startProgressLocked(c.gen, c.handle)
	st := c.state
	c.mu.Unlock()
	c.emit(st)
}

// Seek moves the playback position (seconds), clamped to the stream
// duration. Valid while playing or paused.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	handle := c.handle
	c.mu.Unlock()

	if handle == nil {
		return nil
	}
	if err := handle.Seek(time.Duration(seconds * float64(time.Second))); err != nil {
		return err
	}

	c.mu.Lock()
	if c.handle == handle {
		c.state.Progress = handle.Position().Seconds()
	}
	st := c.state
	c.mu.Unlock()
	c.emit(st)
	return nil
}

// Stop tears down playback and resets all state, including repeat mode.
// The reciter preference survives.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.supersedeLocked()
	c.state = State{ReciterID: c.state.ReciterID}
	st := c.state
	c.mu.Unlock()
	c.emit(st)
	log.Debug().Msg("Playback stopped")
}

// CycleRepeatMode advances the repeat mode none -> verse -> surah -> ab ->
// none. Entering ab seeds the start bound with the current verse and
// clears the end bound; leaving ab clears both bounds.
func (c *Controller) CycleRepeatMode() RepeatMode {
	c.mu.Lock()
	old := c.state.RepeatMode
	mode := old.Next()
	c.state.RepeatMode = mode
	if mode == RepeatAB {
		c.state.ABStart = c.state.Verse
		c.state.ABEnd = 0
	} else if old == RepeatAB {
		c.state.ABStart = 0
		c.state.ABEnd = 0
	}
	st := c.state
	c.mu.Unlock()
	c.emit(st)
	log.Debug().Str("mode", mode.String()).Msg("Repeat mode changed")
	return mode
}

// SetABRepeatStart sets the A bound. A start at or past the current end
// bound clears the end bound.
func (c *Controller) SetABRepeatStart(verse int) {
	c.mu.Lock()
	c.state.ABStart = verse
	if c.state.ABEnd != 0 && verse >= c.state.ABEnd {
		c.state.ABEnd = 0
	}
	st := c.state
	c.mu.Unlock()
	c.emit(st)
}

// SetABRepeatEnd sets the B bound. An end below the current start bound is
// rejected and leaves the bound unchanged.
func (c *Controller) SetABRepeatEnd(verse int) error {
	c.mu.Lock()
	if c.state.ABStart != 0 && verse < c.state.ABStart {
		c.mu.Unlock()
		return fmt.Errorf("%w: end %d, start %d", ErrInvalidABRange, verse, c.state.ABStart)
	}
	c.state.ABEnd = verse
	st := c.state
	c.mu.Unlock()
	c.emit(st)
	return nil
}

// supersedeLocked bumps the generation and tears down the live handle, so
// that callbacks from any in-flight playback are discarded. Callers must
// hold the lock.
func (c *Controller) supersedeLocked() uint64 {
	c.gen++
	c.stopProgressLocked()
	if c.handle != nil {
		c.handle.Stop()
		c.handle = nil
	}
	return c.gen
}

// resolveSource returns the verse audio, cache-first with network fallback.
func (c *Controller) resolveSource(surah, verse int, reciterID string) (data []byte, fromCache bool, err error) {
	if data := c.cache.Get(surah, verse, reciterID); data != nil {
		return data, true, nil
	}

	folder, err := c.reciters.Folder(reciterID)
	if err != nil {
		return nil, false, err
	}

	data, err = c.source.FetchVerse(context.Background(), folder, surah, verse)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// failLoad records a load error and transitions to idle, unless the
// request was superseded meanwhile.
func (c *Controller) failLoad(gen uint64, err error) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}
	c.state.IsLoading = false
	c.state.IsPlaying = false
	c.state.Surah = 0
	c.state.Verse = 0
	c.state.TotalVerses = 0
	c.state.Err = err.Error()
	st := c.state
	c.mu.Unlock()
	c.emit(st)

	log.Warn().Err(err).Msg("Playback load failed")
	return err
}

// watch waits for the playback to end and drives caching and advancement.
func (c *Controller) watch(gen uint64, h audio.Playback, surah, verse, total int, reciterID string, data []byte, fromCache bool) {
	err := <-h.Done()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}

	if err != nil {
		if errors.Is(err, audio.ErrStopped) {
			c.mu.Unlock()
			return
		}
		// Mid-stream decode failure: record and go idle without
		// consuming the auto-advance logic.
		c.supersedeLocked()
		c.state.IsPlaying = false
		c.state.IsLoading = false
		c.state.Surah = 0
		c.state.Verse = 0
		c.state.Err = err.Error()
		st := c.state
		c.mu.Unlock()
		c.emit(st)
		log.Warn().Err(err).Int("surah", surah).Int("verse", verse).Msg("Playback failed")
		return
	}

	// Opportunistic background cache fill after a cache-miss playback.
	if !fromCache {
		go c.cache.Put(surah, verse, reciterID, data)
	}

	mode := c.state.RepeatMode
	abStart, abEnd := c.state.ABStart, c.state.ABEnd
	next, ok := nextVerse(mode, verse, total, abStart, abEnd, c.autoPlayNext)
	if !ok {
		c.supersedeLocked()
		c.state.IsPlaying = false
		c.state.Progress = 0
		c.state.Duration = 0
		c.state.Surah = 0
		c.state.Verse = 0
		c.state.TotalVerses = 0
		st := c.state
		c.mu.Unlock()
		c.emit(st)
		return
	}
	c.mu.Unlock()

	if err := c.PlayVerse(surah, next, total); err != nil {
		log.Warn().Err(err).Int("surah", surah).Int("verse", next).Msg("Auto-advance failed")
	}
}

// startProgressLocked starts the position sampling loop for the handle.
// Callers must hold the lock.
func (c *Controller) startProgressLocked(gen uint64, h audio.Playback) {
	stop := make(chan struct{})
	c.stopProgress = stop

	go func() {
		ticker := time.NewTicker(c.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.gen != gen || !c.state.IsPlaying {
					c.mu.Unlock()
					return
				}
				c.state.Progress = h.Position().Seconds()
				st := c.state
				c.mu.Unlock()
				c.emit(st)
			}
		}
	}()
}

// stopProgressLocked stops the sampling loop. Callers must hold the lock.
func (c *Controller) stopProgressLocked() {
	if c.stopProgress != nil {
		close(c.stopProgress)
		c.stopProgress = nil
	}
}

// emit delivers a state snapshot to the listener, outside the lock.
func (c *Controller) emit(st State) {
	if c.notify != nil {
		c.notify(st)
	}
}
