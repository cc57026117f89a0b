package audiofocus

import (
	"reflect"
	"slices"
	"sync"
)

type focusEntry struct {
	owner FocusOwner
	hint  DurationHint
}

// Manager is an in-process AudioManager keeping a focus stack. A new
// request takes focus from the current holder, which is told about a loss
// matching the requested hint. Holders that lose focus permanently leave
// the stack; transient losers get focus back when the holder abandons.
type Manager struct {
	mu    sync.Mutex
	stack []focusEntry
}

// NewManager returns a Manager with no focus holder.
func NewManager() *Manager {
	return &Manager{}
}

// RequestAudioFocus grants focus to owner. Requests are always granted.
func (m *Manager) RequestAudioFocus(owner FocusOwner, _ StreamType, hint DurationHint) RequestResult {
	if owner == nil {
		return RequestFailed
	}

	m.mu.Lock()
	if top, ok := m.topLocked(); ok && sameOwner(top.owner, owner) {
		m.stack[len(m.stack)-1].hint = hint
		m.mu.Unlock()
		return RequestGranted
	}
	m.removeLocked(owner)

	var loser FocusOwner
	if top, ok := m.topLocked(); ok {
		loser = top.owner
		if hint == GainPermanent {
			m.stack = m.stack[:len(m.stack)-1]
		}
	}
	m.stack = append(m.stack, focusEntry{owner: owner, hint: hint})
	m.mu.Unlock()

	if loser != nil {
		loser.OnFocusChange(lossFor(hint))
	}
	return RequestGranted
}

// AbandonAudioFocus releases owner's focus. When owner held focus, the
// next holder on the stack regains it.
func (m *Manager) AbandonAudioFocus(owner FocusOwner) {
	m.mu.Lock()
	top, ok := m.topLocked()
	if !ok || !sameOwner(top.owner, owner) {
		m.removeLocked(owner)
		m.mu.Unlock()
		return
	}
	m.stack = m.stack[:len(m.stack)-1]
	next, resume := m.topLocked()
	m.mu.Unlock()

	if resume {
		next.owner.OnFocusChange(FocusGain)
	}
}

// Holder returns the current focus holder or nil.
func (m *Manager) Holder() FocusOwner {
	m.mu.Lock()
	defer m.mu.Unlock()
	if top, ok := m.topLocked(); ok {
		return top.owner
	}
	return nil
}

func (m *Manager) topLocked() (focusEntry, bool) {
	if len(m.stack) == 0 {
		return focusEntry{}, false
	}
	return m.stack[len(m.stack)-1], true
}

func (m *Manager) removeLocked(owner FocusOwner) {
	m.stack = slices.DeleteFunc(m.stack, func(e focusEntry) bool { return sameOwner(e.owner, owner) })
}

// sameOwner compares owners by identity. Owners whose dynamic type is not
// comparable never match, so they cannot refresh or abandon a request.
func sameOwner(a, b FocusOwner) bool {
	if a == nil || b == nil {
		return false
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

func lossFor(hint DurationHint) FocusChange {
	switch hint {
	case GainTransient, GainTransientExclusive:
		return FocusLossTransient
	case GainTransientMayDuck:
		return FocusLossTransientCanDuck
	default:
		return FocusLoss
	}
}
