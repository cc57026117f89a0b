package mediabutton

import (
	"sync"
	"time"

	"media-helper/internal/metrics"
)

// Action is a player command decoded from a media key.
type Action int

const (
	ActionPlay Action = iota + 1
	ActionPause
	ActionPlayPause
	ActionStop
	ActionNext
	ActionPrevious
)

var actionNames = map[Action]string{
	ActionPlay:      "play",
	ActionPause:     "pause",
	ActionPlayPause: "play_pause",
	ActionStop:      "stop",
	ActionNext:      "next",
	ActionPrevious:  "previous",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

var keyActions = map[KeyCode]Action{
	KeyPlay:      ActionPlay,
	KeyPause:     ActionPause,
	KeyPlayPause: ActionPlayPause,
	KeyStop:      ActionStop,
	KeyNext:      ActionNext,
	KeyPrevious:  ActionPrevious,
}

// Listener receives decoded media button input.
type Listener interface {
	OnMediaAction(action Action)
	OnHeadsetHookClicked(count int)
}

// ListenerFuncs implements Listener with optional functions.
type ListenerFuncs struct {
	Action      func(Action)
	HookClicked func(count int)
}

func (f ListenerFuncs) OnMediaAction(a Action) {
	if f.Action != nil {
		f.Action(a)
	}
}

func (f ListenerFuncs) OnHeadsetHookClicked(count int) {
	if f.HookClicked != nil {
		f.HookClicked(count)
	}
}

// Dispatcher routes media button intents to a Listener. Player keys are
// reported on key release; headset hook releases are aggregated through a
// ClickCounter.
type Dispatcher struct {
	listener Listener
	counter  *ClickCounter

	mu         sync.Mutex
	unregister func()
}

// NewDispatcher returns a Dispatcher for l. A non-positive interval selects
// DefaultClickInterval. It panics if l is nil.
func NewDispatcher(l Listener, interval time.Duration, opts ...ClickOption) *Dispatcher {
	if l == nil {
		panic("mediabutton: nil listener")
	}
	return &Dispatcher{
		listener: l,
		counter:  NewClickCounter(interval, l.OnHeadsetHookClicked, opts...),
	}
}

// Handle processes intent and reports whether it was a media button
// broadcast carrying a key event.
func (d *Dispatcher) Handle(intent Intent) bool {
	if intent.Action != ActionMediaButton || intent.KeyEvent == nil {
		return false
	}
	ev := intent.KeyEvent

	if ev.Code == KeyHeadsetHook {
		if ev.Action == ActionUp {
			metrics.ButtonEventsTotal.WithLabelValues("hook").Inc()
			d.counter.PutEvent()
		}
		return true
	}

	d.counter.Reset()
	if ev.Action != ActionUp {
		return true
	}

	action, ok := keyActions[ev.Code]
	if !ok {
		metrics.ButtonEventsTotal.WithLabelValues("other").Inc()
		return true
	}
	metrics.ButtonEventsTotal.WithLabelValues(action.String()).Inc()
	d.listener.OnMediaAction(action)
	return true
}

// Register subscribes the dispatcher to media button broadcasts. Calling it
// again while registered is a no-op.
func (d *Dispatcher) Register(b Broadcaster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unregister != nil {
		return
	}
	d.unregister = b.Register(ActionMediaButton, func(in Intent) { d.Handle(in) })
}

// Unregister removes the broadcast subscription, if any.
func (d *Dispatcher) Unregister() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unregister != nil {
		d.unregister()
		d.unregister = nil
	}
}

// Close unregisters and stops the click counter.
func (d *Dispatcher) Close() {
	d.Unregister()
	d.counter.Close()
}
