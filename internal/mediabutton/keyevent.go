package mediabutton

// KeyCode identifies a media key.
type KeyCode int

// Key codes, numbered as on Android so recorded events can be replayed.
const (
	KeyUnknown     KeyCode = 0
	KeyHeadsetHook KeyCode = 79
	KeyPlayPause   KeyCode = 85
	KeyStop        KeyCode = 86
	KeyNext        KeyCode = 87
	KeyPrevious    KeyCode = 88
	KeyPlay        KeyCode = 126
	KeyPause       KeyCode = 127
)

var keyNames = map[KeyCode]string{
	KeyHeadsetHook: "headset_hook",
	KeyPlayPause:   "play_pause",
	KeyStop:        "stop",
	KeyNext:        "next",
	KeyPrevious:    "previous",
	KeyPlay:        "play",
	KeyPause:       "pause",
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKeyCode converts a key name as printed by KeyCode.String.
func ParseKeyCode(name string) (KeyCode, bool) {
	for code, n := range keyNames {
		if n == name {
			return code, true
		}
	}
	return KeyUnknown, false
}

// KeyAction is the phase of a key press.
type KeyAction int

const (
	ActionDown KeyAction = iota
	ActionUp
)

// KeyEvent is one key transition.
type KeyEvent struct {
	Code   KeyCode
	Action KeyAction
}

// Broadcast actions.
const (
	ActionMediaButton        = "android.intent.action.MEDIA_BUTTON"
	ActionAudioBecomingNoisy = "android.media.AUDIO_BECOMING_NOISY"
)

// Intent is a broadcast message. KeyEvent is set for media button
// broadcasts.
type Intent struct {
	Action   string
	KeyEvent *KeyEvent
}

// MediaButton returns the media button intent for a key transition.
func MediaButton(code KeyCode, action KeyAction) Intent {
	return Intent{Action: ActionMediaButton, KeyEvent: &KeyEvent{Code: code, Action: action}}
}

// Broadcaster delivers intents with a given action to registered
// receivers. Register returns a function that removes the receiver.
type Broadcaster interface {
	Register(action string, receiver func(Intent)) (unregister func())
}
