package mediabutton

import (
	"slices"
	"sync"
)

// Bus is an in-process Broadcaster. Receivers run synchronously on the
// sending goroutine in registration order.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	receivers map[string]map[int]func(Intent)
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{receivers: make(map[string]map[int]func(Intent))}
}

// Register adds receiver for intents with action. The returned function
// removes it and may be called more than once.
func (b *Bus) Register(action string, receiver func(Intent)) (unregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.receivers[action] == nil {
		b.receivers[action] = make(map[int]func(Intent))
	}
	b.receivers[action][id] = receiver

	return sync.OnceFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.receivers[action], id)
	})
}

// Send delivers intent to every receiver registered for its action and
// returns how many were called. Receivers may register or unregister
// during delivery; the change applies to the next Send.
func (b *Bus) Send(intent Intent) int {
	b.mu.Lock()
	registered := b.receivers[intent.Action]
	ids := make([]int, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	targets := make([]func(Intent), len(ids))
	for i, id := range ids {
		targets[i] = registered[id]
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(intent)
	}
	return len(targets)
}
