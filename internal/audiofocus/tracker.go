package audiofocus

import (
	"sync"

	"media-helper/internal/logging"
	"media-helper/internal/metrics"
)

// FocusChange is an audio focus transition, numbered as on Android.
type FocusChange int

const (
	FocusGain                 FocusChange = 1
	FocusLoss                 FocusChange = -1
	FocusLossTransient        FocusChange = -2
	FocusLossTransientCanDuck FocusChange = -3
)

func (c FocusChange) String() string {
	switch c {
	case FocusGain:
		return "gain"
	case FocusLoss:
		return "loss"
	case FocusLossTransient:
		return "loss_transient"
	case FocusLossTransientCanDuck:
		return "loss_transient_can_duck"
	default:
		return "unknown"
	}
}

// Listener reacts to focus changes. OnGain reports whether focus was lost
// transiently, or transiently with ducking allowed, since the last gain or
// permanent loss.
type Listener interface {
	OnLoss()
	OnLossTransient()
	OnLossTransientCanDuck()
	OnGain(lossTransient, lossTransientCanDuck bool)
}

// ListenerFuncs implements Listener with optional functions.
type ListenerFuncs struct {
	Loss                 func()
	LossTransient        func()
	LossTransientCanDuck func()
	Gain                 func(lossTransient, lossTransientCanDuck bool)
}

func (f ListenerFuncs) OnLoss() {
	if f.Loss != nil {
		f.Loss()
	}
}

func (f ListenerFuncs) OnLossTransient() {
	if f.LossTransient != nil {
		f.LossTransient()
	}
}

func (f ListenerFuncs) OnLossTransientCanDuck() {
	if f.LossTransientCanDuck != nil {
		f.LossTransientCanDuck()
	}
}

func (f ListenerFuncs) OnGain(lossTransient, lossTransientCanDuck bool) {
	if f.Gain != nil {
		f.Gain(lossTransient, lossTransientCanDuck)
	}
}

// Tracker dispatches focus changes to a Listener and remembers transient
// losses until the next gain.
type Tracker struct {
	mu                   sync.Mutex
	listener             Listener
	lossTransient        bool
	lossTransientCanDuck bool
}

// NewTracker returns a Tracker for l. It panics if l is nil.
func NewTracker(l Listener) *Tracker {
	if l == nil {
		panic("audiofocus: nil listener")
	}
	return &Tracker{listener: l}
}

// OnFocusChange applies change. Unknown values and changes after Detach are
// ignored.
func (t *Tracker) OnFocusChange(change FocusChange) {
	t.mu.Lock()
	l := t.listener
	if l == nil {
		t.mu.Unlock()
		return
	}

	var notify func()
	switch change {
	case FocusLoss:
		t.lossTransient, t.lossTransientCanDuck = false, false
		notify = l.OnLoss
	case FocusLossTransient:
		t.lossTransient = true
		notify = l.OnLossTransient
	case FocusLossTransientCanDuck:
		t.lossTransientCanDuck = true
		notify = l.OnLossTransientCanDuck
	case FocusGain:
		transient, duck := t.lossTransient, t.lossTransientCanDuck
		t.lossTransient, t.lossTransientCanDuck = false, false
		notify = func() { l.OnGain(transient, duck) }
	default:
		t.mu.Unlock()
		logging.Debug("Ignoring unknown audio focus change %d", int(change))
		return
	}
	t.mu.Unlock()

	metrics.AudioFocusChanges.WithLabelValues(change.String()).Inc()
	notify()
}

// Flags returns the pending transient-loss flags.
func (t *Tracker) Flags() (lossTransient, lossTransientCanDuck bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lossTransient, t.lossTransientCanDuck
}

// Detach stops delivery to the listener.
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = nil
}
