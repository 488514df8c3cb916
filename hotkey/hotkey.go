// Package hotkey watches for the global Ctrl+Shift+Space combination that
// turns the microphone on and off while another window has focus.
package hotkey

// Hotkey delivers one value on Pressed per press of the combination. Holding
// the keys down does not repeat.
type Hotkey interface {
	Register() error
	Unregister()
	Pressed() <-chan struct{}
}
