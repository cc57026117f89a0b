package audiofocus

import "sync"

// StreamType selects the audio stream focus is requested for.
type StreamType int

const (
	StreamVoiceCall    StreamType = 0
	StreamSystem       StreamType = 1
	StreamRing         StreamType = 2
	StreamMusic        StreamType = 3
	StreamAlarm        StreamType = 4
	StreamNotification StreamType = 5
)

// DurationHint is the kind of focus requested.
type DurationHint int

const (
	GainPermanent          DurationHint = 1
	GainTransient          DurationHint = 2
	GainTransientMayDuck   DurationHint = 3
	GainTransientExclusive DurationHint = 4
)

// RequestResult is the outcome of a focus request.
type RequestResult int

const (
	RequestFailed  RequestResult = 0
	RequestGranted RequestResult = 1
	RequestDelayed RequestResult = 2
)

// FocusOwner receives focus changes from an AudioManager. Managers track
// owners by identity, so implementations should be pointers.
type FocusOwner interface {
	OnFocusChange(change FocusChange)
}

// AudioManager arbitrates audio focus between players.
type AudioManager interface {
	RequestAudioFocus(owner FocusOwner, stream StreamType, hint DurationHint) RequestResult
	AbandonAudioFocus(owner FocusOwner)
}

// Helper requests and abandons focus on behalf of one player and feeds the
// resulting changes to a Tracker. The owner must Close it when done.
type Helper struct {
	manager AudioManager
	tracker *Tracker

	mu     sync.Mutex
	closed bool
}

// NewHelper returns a Helper reporting to l. A nil manager is allowed;
// every request then fails.
func NewHelper(manager AudioManager, l Listener) *Helper {
	return &Helper{manager: manager, tracker: NewTracker(l)}
}

// Request asks for focus on stream.
func (h *Helper) Request(stream StreamType, hint DurationHint) RequestResult {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if h.manager == nil || closed {
		return RequestFailed
	}
	return h.manager.RequestAudioFocus(h.tracker, stream, hint)
}

// Abandon gives focus up.
func (h *Helper) Abandon() {
	if h.manager == nil {
		return
	}
	h.manager.AbandonAudioFocus(h.tracker)
}

// Tracker returns the tracker focus changes are delivered to.
func (h *Helper) Tracker() *Tracker { return h.tracker }

// Close abandons focus and detaches the listener. Later calls are no-ops.
func (h *Helper) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.Abandon()
	h.tracker.Detach()
}
