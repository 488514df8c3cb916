//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

type xHotkey struct {
	hk      *hotkey.Hotkey
	pressed chan struct{}
	stop    chan struct{}
}

func New() Hotkey {
	return &xHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		pressed: make(chan struct{}, 1),
	}
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	h.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.hk.Keydown():
				select {
				case h.pressed <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	h.hk.Unregister()
}

func (h *xHotkey) Pressed() <-chan struct{} {
	return h.pressed
}

func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}
