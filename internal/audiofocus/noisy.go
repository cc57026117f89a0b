package audiofocus

import (
	"sync"

	"media-helper/internal/mediabutton"
)

// NoisyWatcher calls a function when audio is about to become noisy, for
// example when headphones are unplugged.
type NoisyWatcher struct {
	broadcaster mediabutton.Broadcaster
	onNoisy     func()

	mu         sync.Mutex
	unregister func()
}

// NewNoisyWatcher returns an unregistered watcher. It panics if onNoisy is
// nil.
func NewNoisyWatcher(b mediabutton.Broadcaster, onNoisy func()) *NoisyWatcher {
	if onNoisy == nil {
		panic("audiofocus: nil noisy handler")
	}
	return &NoisyWatcher{broadcaster: b, onNoisy: onNoisy}
}

// Register subscribes to becoming-noisy broadcasts. It is a no-op when
// already registered.
func (w *NoisyWatcher) Register() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unregister != nil {
		return
	}
	w.unregister = w.broadcaster.Register(mediabutton.ActionAudioBecomingNoisy, func(mediabutton.Intent) {
		w.onNoisy()
	})
}

// Unregister removes the subscription. It is a no-op when not registered.
func (w *NoisyWatcher) Unregister() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unregister != nil {
		w.unregister()
		w.unregister = nil
	}
}

// Registered reports whether the watcher is subscribed.
func (w *NoisyWatcher) Registered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unregister != nil
}
