package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

const (
	// OutputSampleRate is the fixed speaker sample rate; decoded streams
	// are resampled to it so the device is initialized exactly once.
	OutputSampleRate = beep.SampleRate(44100)

	// SpeakerBufferSize controls output latency.
	SpeakerBufferSize = 100 * time.Millisecond

	// resampleQuality balances CPU cost against interpolation quality.
	resampleQuality = 4
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepSink plays MP3 audio through the system speaker.
type BeepSink struct {
	sampleRate beep.SampleRate
}

// NewBeepSink creates a speaker-backed sink. The speaker device itself is
// initialized lazily on the first Play call.
func NewBeepSink() *BeepSink {
	return &BeepSink{sampleRate: OutputSampleRate}
}

// Play decodes the MP3 payload and starts it on the speaker.
func (s *BeepSink) Play(data []byte) (Playback, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(s.sampleRate, s.sampleRate.N(SpeakerBufferSize))
		if speakerErr == nil {
			log.Info().Int("sampleRate", int(s.sampleRate)).Msg("Speaker initialized")
		}
	})
	if speakerErr != nil {
		streamer.Close()
		return nil, fmt.Errorf("speaker init: %w", speakerErr)
	}

	done := make(chan error, 1)

	var stream beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		stream = beep.Resample(resampleQuality, format.SampleRate, s.sampleRate, streamer)
	}

	ctrl := &beep.Ctrl{
		Streamer: beep.Seq(stream, beep.Callback(func() {
			done <- nil
		})),
	}

	p := &beepPlayback{
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		done:     done,
	}

	speaker.Play(ctrl)
	return p, nil
}

type beepPlayback struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	done     chan error

	mu      sync.Mutex
	stopped bool
}

func (p *beepPlayback) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

func (p *beepPlayback) Resume() {
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
}

func (p *beepPlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()

	p.streamer.Close()

	// Unblock any waiter; the completion callback will never fire now.
	select {
	case p.done <- ErrStopped:
	default:
	}
}

func (p *beepPlayback) Position() time.Duration {
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos)
}

func (p *beepPlayback) Duration() time.Duration {
	return p.format.SampleRate.D(p.streamer.Len())
}

func (p *beepPlayback) Seek(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	if max := p.Duration(); d > max {
		d = max
	}

	speaker.Lock()
	err := p.streamer.Seek(p.format.SampleRate.N(d))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

func (p *beepPlayback) Done() <-chan error {
	return p.done
}
