package audio

import (
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays a fixed PCM buffer, then silence, to every capture it
// opens. Used by tests and the headless mode.
type FakeContext struct {
	pcm      []byte
	realtime bool
	devices  []DeviceInfo
	startErr error
}

func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

// LoadWAV reads a 16 kHz mono PCM16 WAV file and strips its header.
func LoadWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return data, nil
}

// WithDevices sets the list Devices reports.
func (f *FakeContext) WithDevices(devices ...DeviceInfo) *FakeContext {
	f.devices = devices
	return f
}

// FailStart makes every capture's Start return err.
func (f *FakeContext) FailStart(err error) *FakeContext {
	f.startErr = err
	return f
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.devices, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, cfg CaptureConfig) (CaptureDevice, error) {
	chunk := fakeFrameSize * fakeBytesPerFrame
	if cfg.ChunkBytes > 0 {
		chunk = cfg.ChunkBytes
	}
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, chunkBytes: chunk, startErr: f.startErr}, nil
}

type FakeCapture struct {
	pcm        []byte
	realtime   bool
	chunkBytes int
	startErr   error

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

// Start delivers the buffer synchronously unless realtime is set, in which
// case it is paced at the capture sample rate.
func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	chunkBytes := f.chunkBytes
	frames := chunkBytes / fakeBytesPerFrame
	interval := time.Duration(frames) * time.Second / time.Duration(SampleRate)

	pos := 0
	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
	}

	go func() {
		defer close(f.feedDone)
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
			cb := f.callback()
			if cb == nil {
				continue
			}
			if pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos, chunkBytes)
			} else {
				cb(silence, uint32(frames))
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() { f.Stop() }
