//go:build linux

package hotkey

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"easybingo/log"
)

const (
	inputDir    = "/dev/input"
	sysInputDir = "/sys/class/input"
	groupHint   = "run: sudo usermod -aG input $USER, then log in again"
)

// evdevHotkey reads key events straight from /dev/input so the combination
// works under X11 and Wayland while the console is not focused. Each
// keyboard keeps its own key state.
type evdevHotkey struct {
	pressed chan struct{}
	files   []*os.File
	once    sync.Once
}

func New() Hotkey {
	return &evdevHotkey{pressed: make(chan struct{}, 1)}
}

func (h *evdevHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return err
	}
	var denied int
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				denied++
			}
			continue
		}
		h.files = append(h.files, f)
	}
	if len(h.files) == 0 {
		if denied > 0 {
			return fmt.Errorf("%d keyboard(s) not readable (%s): %w", denied, groupHint, fs.ErrPermission)
		}
		return fmt.Errorf("could not open any of %d keyboard(s)", len(keyboards))
	}
	for _, f := range h.files {
		go h.readEvents(f)
	}
	log.Info(fmt.Sprintf("hotkey: watching %d keyboard(s) for ctrl+shift+space", len(h.files)))
	return nil
}

// readEvents exits when Unregister closes f or the device goes away.
func (h *evdevHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	c := newCombo()
	for {
		n, err := f.Read(buf)
		if err != nil {
			if !errors.Is(err, os.ErrClosed) {
				log.Warnf("hotkey: %s: %v", f.Name(), err)
			}
			return
		}
		for _, ev := range decodeEvents(buf[:n]) {
			if !c.feed(ev) {
				continue
			}
			select {
			case h.pressed <- struct{}{}:
			default:
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Pressed() <-chan struct{} {
	return h.pressed
}

// findKeyboards lists event devices that can produce the whole combination.
// Mice and power buttons also expose key capabilities and are skipped.
func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scanning input devices: %w", err)
	}
	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		caps, err := os.ReadFile(filepath.Join(sysInputDir, e.Name(), "device", "capabilities", "key"))
		if err != nil {
			continue
		}
		if hasKeys(string(caps), keyLCtrl, keyLShift, keySpace) {
			keyboards = append(keyboards, filepath.Join(inputDir, e.Name()))
		}
	}
	if len(keyboards) == 0 {
		return nil, errors.New("no keyboard with ctrl, shift and space found")
	}
	return keyboards, nil
}

// Diagnose reports whether Register would succeed, without keeping any
// device open.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", err
	}
	var readable []string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		readable = append(readable, filepath.Base(path))
	}
	if len(readable) == 0 {
		return "", fmt.Errorf("found %d keyboard(s) but cannot read any (%s)", len(keyboards), groupHint)
	}
	return fmt.Sprintf("%d of %d keyboard(s) readable: %s", len(readable), len(keyboards), strings.Join(readable, ", ")), nil
}
