// Package player provides the playback controller for verse-by-verse
// recitation: transport operations, repeat modes, and cache-first source
// resolution over a single live audio handle.
package player

// RepeatMode controls what happens when a verse finishes playing.
type RepeatMode int

const (
	// RepeatNone plays through, optionally auto-advancing to the next verse.
	RepeatNone RepeatMode = iota

	// RepeatVerse replays the current verse indefinitely.
	RepeatVerse

	// RepeatSurah advances through the surah and wraps back to verse 1.
	RepeatSurah

	// RepeatAB loops the verse range [ABStart, ABEnd].
	RepeatAB
)

// String returns the wire name of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatVerse:
		return "verse"
	case RepeatSurah:
		return "surah"
	case RepeatAB:
		return "ab"
	default:
		return "none"
	}
}

// Next cycles none -> verse -> surah -> ab -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatVerse
	case RepeatVerse:
		return RepeatSurah
	case RepeatSurah:
		return RepeatAB
	default:
		return RepeatNone
	}
}

// State is a snapshot of the controller's playback state. Zero values mean
// "none": Surah/Verse 0 when idle, ABStart/ABEnd 0 when unset.
type State struct {
	IsPlaying bool
	IsLoading bool

	Surah       int
	Verse       int
	TotalVerses int

	Progress float64 // seconds
	Duration float64 // seconds

	RepeatMode RepeatMode
	ABStart    int
	ABEnd      int

	ReciterID string
	FromCache bool

	// Err holds the last non-fatal playback error, cleared on the next
	// play attempt.
	Err string
}

// ToJSON returns the state as a map for the push-state wire format.
func (s State) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"isPlaying":   s.IsPlaying,
		"isLoading":   s.IsLoading,
		"surah":       s.Surah,
		"verse":       s.Verse,
		"totalVerses": s.TotalVerses,
		"progress":    s.Progress,
		"duration":    s.Duration,
		"repeatMode":  s.RepeatMode.String(),
		"abStart":     s.ABStart,
		"abEnd":       s.ABEnd,
		"reciter":     s.ReciterID,
		"fromCache":   s.FromCache,
		"error":       s.Err,
	}
}

// nextVerse decides what plays after a verse completes naturally. The
// second return is false when playback should go idle. Auto-advance only
// runs after successful completion; callers must not invoke this on error
// paths.
func nextVerse(mode RepeatMode, verse, total, abStart, abEnd int, autoPlayNext bool) (int, bool) {
	switch mode {
	case RepeatVerse:
		return verse, true

	case RepeatSurah:
		if verse < total {
			return verse + 1, true
		}
		return 1, true

	case RepeatAB:
		// With no start bound the mode degenerates to repeating the
		// current verse; with no end bound, to repeating the start.
		if abStart == 0 {
			return verse, true
		}
		if abEnd == 0 {
			return abStart, true
		}
		if verse < abEnd {
			return verse + 1, true
		}
		return abStart, true

	default: // RepeatNone
		if autoPlayNext && verse < total {
			return verse + 1, true
		}
		return 0, false
	}
}
