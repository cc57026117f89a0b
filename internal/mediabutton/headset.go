package mediabutton

import (
	"time"

	"media-helper/internal/metrics"
)

// HeadsetHook turns headset hook presses into click counts, for "press
// twice to skip" style controls.
type HeadsetHook struct {
	counter *ClickCounter
}

// NewHeadsetHook returns a HeadsetHook reporting to onClicked. A
// non-positive interval selects DefaultClickInterval.
func NewHeadsetHook(interval time.Duration, onClicked func(count int), opts ...ClickOption) *HeadsetHook {
	return &HeadsetHook{counter: NewClickCounter(interval, onClicked, opts...)}
}

// HandleMediaButton consumes headset hook events, counting one click per
// key release, and reports true. Any other key discards the pending clicks
// and reports false, as does an intent without a key event.
func (h *HeadsetHook) HandleMediaButton(intent Intent) bool {
	ev := intent.KeyEvent
	if ev == nil {
		return false
	}

	if ev.Code == KeyHeadsetHook {
		if ev.Action == ActionUp {
			metrics.ButtonEventsTotal.WithLabelValues("hook").Inc()
			h.counter.PutEvent()
		}
		return true
	}

	h.counter.Reset()
	return false
}

// Close stops the click counter.
func (h *HeadsetHook) Close() {
	h.counter.Close()
}
