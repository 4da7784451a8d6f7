// Package audio provides the playback output abstraction. A Sink turns a
// verse's MP3 bytes into an audible Playback handle; the player controller
// owns at most one live handle at a time.
package audio

import (
	"errors"
	"time"
)

// ErrOutputDisabled is returned by the disabled sink when playback is
// attempted with audio output turned off in the configuration.
var ErrOutputDisabled = errors.New("audio output disabled")

// ErrStopped is reported on a playback's Done channel when it was torn
// down before reaching its natural end.
var ErrStopped = errors.New("playback stopped")

// Playback is one live audio stream. It is created by Sink.Play and is
// dead after Stop or after Done yields.
type Playback interface {
	// Pause suspends output without discarding the stream.
	Pause()

	// Resume continues a paused stream.
	Resume()

	// Stop silences and discards the stream. Done will not yield a
	// natural completion afterwards.
	Stop()

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the total stream duration.
	Duration() time.Duration

	// Seek moves the playback position, clamped to [0, Duration].
	Seek(d time.Duration) error

	// Done yields exactly once: nil on natural end-of-stream, or an
	// error if decoding failed mid-stream.
	Done() <-chan error
}

// Sink starts playback of encoded audio.
type Sink interface {
	Play(data []byte) (Playback, error)
}

// NewSink returns the beep speaker sink, or a sink that rejects playback
// when audio output is disabled (headless deployments that only download
// and serve cache state).
func NewSink(enabled bool) Sink {
	if !enabled {
		return disabledSink{}
	}
	return NewBeepSink()
}

type disabledSink struct{}

func (disabledSink) Play([]byte) (Playback, error) {
	return nil, ErrOutputDisabled
}
