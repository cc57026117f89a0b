// Package mediabutton decodes media key input.
//
// ClickCounter aggregates bursts of headset hook presses into a single
// count after a quiet period (300ms by default), so one, two and three
// presses can map to different commands. HeadsetHook wraps a ClickCounter
// for callers that only care about the hook key, and Dispatcher routes every
// media key to a Listener.
package mediabutton
