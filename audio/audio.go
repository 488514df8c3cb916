package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Capture format used by every recognizer: 16 kHz mono PCM16.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BytesPerMs    = SampleRate * Channels * (BitsPerSample / 8) / 1000

	WAVHeaderSize = 44
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether it is a headset that
// drops to narrowband audio while the microphone is open.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Capture failures a recognizer reports differently: only a refusal is a
// permission problem, the others are retried.
var (
	ErrAccessDenied = errors.New("microphone access denied")
	ErrDeviceBusy   = errors.New("microphone busy")
	ErrNoDevice     = errors.New("microphone not found")
)

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	// ChunkBytes batches callbacks to this many bytes. Zero delivers audio
	// as the backend reads it.
	ChunkBytes int
	// Gain multiplies every sample, clipping at the PCM16 range. Values
	// below 2 leave samples untouched.
	Gain int
}

// DefaultConfig is the capture format recognizers stream.
func DefaultConfig() CaptureConfig {
	return CaptureConfig{SampleRate: SampleRate, Channels: Channels}
}

// ChunkFrames is the number of frames in one batched callback.
func (c CaptureConfig) ChunkFrames() int {
	frame := int(c.Channels) * BitsPerSample / 8
	if c.ChunkBytes <= 0 || frame == 0 {
		return 0
	}
	return c.ChunkBytes / frame
}

// batcher converts backend samples to little-endian PCM16 and hands them to
// the callback in ChunkBytes pieces.
type batcher struct {
	cfg CaptureConfig
	buf []byte
}

func newBatcher(cfg CaptureConfig) *batcher {
	return &batcher{cfg: cfg}
}

func (b *batcher) write(samples []int16, cb DataCallback) {
	frame := int(b.cfg.Channels) * BitsPerSample / 8
	if frame == 0 {
		frame = BitsPerSample / 8
	}
	start := len(b.buf)
	b.buf = append(b.buf, make([]byte, len(samples)*2)...)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(b.buf[start+i*2:], uint16(amplify(v, b.cfg.Gain)))
	}
	size := b.cfg.ChunkBytes
	if size <= 0 {
		size = len(b.buf)
	}
	for size > 0 && len(b.buf) >= size {
		chunk := make([]byte, size)
		copy(chunk, b.buf[:size])
		b.buf = b.buf[size:]
		if cb != nil {
			cb(chunk, uint32(size/frame))
		}
	}
}

// reset drops a partial chunk left over from a previous stream.
func (b *batcher) reset() { b.buf = b.buf[:0] }

func amplify(s int16, gain int) int16 {
	if gain < 2 {
		return s
	}
	v := int32(s) * int32(gain)
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// FindDevice returns the first capture device whose name contains name
// (case-insensitive). An empty name selects the system default (nil).
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	want := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), want) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}
