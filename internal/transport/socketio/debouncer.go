package socketio

import (
	"sync"
	"time"
)

// BroadcastDebouncer collapses rapid controller and download updates
// into batched broadcasts. Multiple updates within the debounce window
// result in a single broadcast for each affected type.
type BroadcastDebouncer struct {
	window           time.Duration
	stateCallback    func()
	downloadCallback func()

	mu              sync.Mutex
	pendingState    bool
	pendingDownload bool
	timer           *time.Timer
	stopped         bool
}

// NewBroadcastDebouncer creates a debouncer with the given window.
// stateCallback fires for playback state changes, downloadCallback for
// download progress updates.
func NewBroadcastDebouncer(window time.Duration, stateCallback, downloadCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:           window,
		stateCallback:    stateCallback,
		downloadCallback: downloadCallback,
	}
}

// TriggerState records a playback state change. The broadcast is
// deferred until the window elapses without further triggers.
func (d *BroadcastDebouncer) TriggerState() {
	d.trigger(func() { d.pendingState = true })
}

// TriggerDownload records a download progress change.
func (d *BroadcastDebouncer) TriggerDownload() {
	d.trigger(func() { d.pendingDownload = true })
}

func (d *BroadcastDebouncer) trigger(mark func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	mark()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	doState := d.pendingState
	doDownload := d.pendingDownload
	d.pendingState = false
	d.pendingDownload = false
	d.mu.Unlock()

	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
	if doDownload && d.downloadCallback != nil {
		d.downloadCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingDownload = false
}
