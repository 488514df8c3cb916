package hotkey

import (
	"encoding/binary"
	"math/big"
	"strings"
)

// Linux input event codes for the Ctrl+Shift+Space combination.
const (
	evSyn = 0
	evKey = 1

	synDropped = 3

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2

	keyLCtrl  = 29
	keyLShift = 42
	keyRShift = 54
	keySpace  = 57
	keyRCtrl  = 97
)

// inputEventSize is sizeof(struct input_event) on 64-bit kernels.
const inputEventSize = 24

type inputEvent struct {
	typ   uint16
	code  uint16
	value int32
}

// decodeEvents splits a read from an event device into events. A trailing
// partial event is ignored.
func decodeEvents(buf []byte) []inputEvent {
	evs := make([]inputEvent, 0, len(buf)/inputEventSize)
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		evs = append(evs, inputEvent{
			typ:   binary.LittleEndian.Uint16(buf[i+16:]),
			code:  binary.LittleEndian.Uint16(buf[i+18:]),
			value: int32(binary.LittleEndian.Uint32(buf[i+20:])),
		})
	}
	return evs
}

// combo tracks held keys on one keyboard and reports when Space goes down
// while a Ctrl and a Shift are held. Either side of a modifier counts, and
// releasing one side keeps the other held.
type combo struct {
	held  map[uint16]bool
	armed bool
}

func newCombo() *combo {
	return &combo{held: make(map[uint16]bool)}
}

// feed applies ev and reports whether it completed the combination.
func (c *combo) feed(ev inputEvent) bool {
	if ev.typ == evSyn && ev.code == synDropped {
		// The kernel lost events; key state is unknown until keys move again.
		clear(c.held)
		c.armed = false
		return false
	}
	if ev.typ != evKey || ev.value == keyRepeat {
		return false
	}
	down := ev.value == keyPress
	if ev.code != keySpace {
		c.held[ev.code] = down
		return false
	}
	if !down {
		c.armed = false
		return false
	}
	if c.armed || !c.modifiersHeld() {
		return false
	}
	c.armed = true
	return true
}

func (c *combo) modifiersHeld() bool {
	ctrl := c.held[keyLCtrl] || c.held[keyRCtrl]
	shift := c.held[keyLShift] || c.held[keyRShift]
	return ctrl && shift
}

// hasKeys reports whether a sysfs key capability bitmap (space-separated
// hex words, most significant first) includes every code.
func hasKeys(caps string, codes ...uint16) bool {
	words := strings.Fields(caps)
	if len(words) == 0 {
		return false
	}
	bits := new(big.Int)
	for _, w := range words {
		v, ok := new(big.Int).SetString(w, 16)
		if !ok {
			return false
		}
		bits.Lsh(bits, 64).Or(bits, v)
	}
	for _, code := range codes {
		if bits.Bit(int(code)) == 0 {
			return false
		}
	}
	return true
}
